package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"driveline/middleware"
	"driveline/services/booking"
)

// BookingHandler exposes the reservation lifecycle over HTTP.
type BookingHandler struct {
	svc    booking.BookingService
	logger *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

// CreateReservation handles POST /api/reservations.
func (h *BookingHandler) CreateReservation(c *gin.Context) {
	var req booking.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	req.UserID = middleware.ActingUserID(c)

	res, err := h.svc.CreateReservation(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reservationId": res.ID,
		"totalCost":     res.TotalCost,
		"status":        res.Status,
	})
}

// GetReservation handles GET /api/reservations/:id.
func (h *BookingHandler) GetReservation(c *gin.Context) {
	res, err := h.svc.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CancelReservation handles DELETE /api/reservations/:id.
func (h *BookingHandler) CancelReservation(c *gin.Context) {
	err := h.svc.CancelReservation(c.Request.Context(), middleware.ActingUserID(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteReservation handles DELETE /api/reservations/:id/hard.
func (h *BookingHandler) DeleteReservation(c *gin.Context) {
	if err := h.svc.DeleteReservation(c.Request.Context(), middleware.ActingUserID(c), c.Param("id")); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// respondServiceError maps the service error taxonomy to client-error
// statuses, preserving the semantic kind.
func respondServiceError(c *gin.Context, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch booking.KindOf(err) {
	case booking.KindNotFound:
		status = http.StatusNotFound
	case booking.KindBadRequest:
		status = http.StatusBadRequest
	case booking.KindForbidden:
		status = http.StatusForbidden
	case booking.KindConflict:
		status = http.StatusConflict
	case booking.KindAlreadyDeleted:
		status = http.StatusGone
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
