package database

import (
	"context"
	"database/sql"
	"log"
	"time"

	"driveline/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	connTimeout     = 10 * time.Second
	maxOpenConns    = 25
	maxIdleConns    = 25
	connMaxLifetime = 30 * time.Minute
	connMaxIdleTime = 5 * time.Minute
)

// DB is the global PostgreSQL handle.
var DB *sql.DB

// InitDB initializes the PostgreSQL connection and applies the schema.
func InitDB() {
	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()

	db, err := sql.Open("pgx", config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open postgres connection: %v", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping postgres: %v", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	DB = db
	log.Println("Connected to PostgreSQL successfully!")
}
