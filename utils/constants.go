// File: utils/constants.go
package utils

import "time"

// CheckoutCachePrefix is the prefix for cached checkout redirect URLs, keyed by reservation id.
const CheckoutCachePrefix = "checkout:"

// CheckoutCacheTTL is the time-to-live for cached checkout URLs. Stripe
// checkout sessions expire after 24 hours; the cache expires with them.
const CheckoutCacheTTL = 24 * time.Hour

// WebhookEventPrefix is the prefix for processed webhook event-id markers.
const WebhookEventPrefix = "webhook:event:"

// WebhookEventTTL is how long a processed webhook event id is remembered.
const WebhookEventTTL = 72 * time.Hour
