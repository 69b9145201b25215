package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"facility-booking-backend/internal/availability"
	"facility-booking-backend/internal/interval"
	"facility-booking-backend/internal/parse"
)

// GetFacilities handles the GET /api/facilities request.
func (h *Handler) GetFacilities(c *gin.Context) {
	facilities, err := h.store.ListFacilities(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve facilities"})
		return
	}
	c.JSON(http.StatusOK, facilities)
}

// availabilityResponse is the free/occupied view for one facility and date.
type availabilityResponse struct {
	FacilityID string              `json:"facilityId"`
	Date       string              `json:"date"`
	Occupied   []interval.Interval `json:"occupied"`
	Free       []interval.Interval `json:"free"`
}

// GetAvailability handles GET /api/facilities/{facility_id}/availability.
func (h *Handler) GetAvailability(c *gin.Context) {
	facilityID := c.Param("facility_id")
	date := c.Query("date")
	if !validDate(date) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing date, use YYYY-MM-DD"})
		return
	}

	reservations, err := h.store.ListReservations(c.Request.Context(), facilityID, date, date)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reservations"})
		return
	}

	idx := availability.Build(reservations, h.slots)
	c.JSON(http.StatusOK, availabilityResponse{
		FacilityID: facilityID,
		Date:       date,
		Occupied:   idx.OccupiedIntervals(),
		Free:       idx.FreeSlots(),
	})
}

// GetBookedCategories handles GET /api/calendar/categories. It returns the
// facility categories with at least one active reservation on the date,
// for calendar dot rendering.
func (h *Handler) GetBookedCategories(c *gin.Context) {
	date := c.Query("date")
	if !validDate(date) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing date, use YYYY-MM-DD"})
		return
	}

	facilities, err := h.store.ListFacilities(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve facilities"})
		return
	}
	names := make(map[string]string, len(facilities))
	for _, f := range facilities {
		names[f.ID] = f.Name
	}

	reservations, err := h.store.ListReservations(c.Request.Context(), "", date, date)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reservations"})
		return
	}

	cats := availability.CategoriesWithBookings(reservations, names)
	out := make([]parse.Category, 0, len(cats))
	for _, cat := range []parse.Category{parse.CategoryCourt, parse.CategoryHall, parse.CategoryOther} {
		if cats[cat] {
			out = append(out, cat)
		}
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "categories": out})
}
