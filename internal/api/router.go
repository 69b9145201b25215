package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"facility-booking-backend/config"
	"facility-booking-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(handler *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	respCache := mw.NewResponseCache(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	caching := respCache.Middleware()
	// Write handlers evict the calendar entries through this hook.
	handler.useResponseCache(respCache)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Facility reference data changes rarely; cache it.
		api.GET("/facilities", caching, handler.GetFacilities)

		// Calendar dots are cached per date and evicted on every
		// reservation write.
		api.GET("/calendar/categories", caching, handler.GetBookedCategories)

		// Availability and reservations must reflect writes immediately,
		// so they bypass the response cache.
		api.GET("/facilities/:facility_id/availability", handler.GetAvailability)

		api.GET("/reservations", handler.GetReservations)
		api.GET("/reservations/:id", handler.GetReservation)
		api.POST("/reservations", handler.PostReservation)
		api.POST("/reservations/:id/cancel", handler.CancelReservation)
		api.POST("/reservations/:id/payment", handler.PostPaymentStatus)
	}

	return r
}
