package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"facility-booking-backend/internal/events"
	"facility-booking-backend/internal/interval"
	"facility-booking-backend/internal/model"
)

// GetReservations handles GET /api/reservations.
func (h *Handler) GetReservations(c *gin.Context) {
	dateFrom := c.Query("date_from")
	dateTo := c.Query("date_to")
	if !validDate(dateFrom) || !validDate(dateTo) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date_from and date_to are required, use YYYY-MM-DD"})
		return
	}

	reservations, err := h.store.ListReservations(c.Request.Context(), c.Query("facility_id"), dateFrom, dateTo)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reservations"})
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// GetReservation handles GET /api/reservations/{id}.
func (h *Handler) GetReservation(c *gin.Context) {
	r, err := h.store.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Reservation not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reservation"})
		return
	}
	c.JSON(http.StatusOK, r)
}

type createReservationRequest struct {
	FacilityID  string `json:"facilityId" binding:"required"`
	Date        string `json:"date" binding:"required"`
	StartMinute int    `json:"startMinute"`
	EndMinute   int    `json:"endMinute"`
	Purpose     string `json:"purpose"`
	CreatedBy   string `json:"createdBy" binding:"required"`
	// "online" reservations are pre-paid and start confirmed; anything
	// else is treated as cash and starts pending.
	PaymentMethod string `json:"paymentMethod"`
}

// PostReservation handles POST /api/reservations.
func (h *Handler) PostReservation(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validDate(req.Date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, use YYYY-MM-DD"})
		return
	}

	iv, err := interval.New(req.StartMinute, req.EndMinute)
	if err == nil {
		err = h.hours.Check(iv)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	facilities, err := h.store.ListFacilities(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve facilities"})
		return
	}
	var facility *model.Facility
	for i := range facilities {
		if facilities[i].ID == req.FacilityID {
			facility = &facilities[i]
			break
		}
	}
	if facility == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown facility"})
		return
	}

	status := model.StatusPending
	payment := model.PaymentUnpaid
	if req.PaymentMethod == "online" {
		status = model.StatusConfirmed
		payment = model.PaymentPaid
	}

	r := &model.Reservation{
		FacilityID:    req.FacilityID,
		Date:          req.Date,
		StartMinute:   iv.Start,
		EndMinute:     iv.End,
		Status:        status,
		PaymentStatus: payment,
		CreatedBy:     req.CreatedBy,
		Purpose:       req.Purpose,
		TotalAmount:   totalAmount(*facility, iv),
	}

	if err := h.store.CreateReservation(c.Request.Context(), r); err != nil {
		if errors.Is(err, model.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Time range is already reserved"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reservation"})
		return
	}

	h.invalidateCalendar()
	h.dispatch(events.ChangeEvent{Type: events.EventInsert, Record: r})
	c.JSON(http.StatusCreated, r)
}

// CancelReservation handles POST /api/reservations/{id}/cancel.
func (h *Handler) CancelReservation(c *gin.Context) {
	id := c.Param("id")
	previous, err := h.store.GetReservation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reservation not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reservation"})
		return
	}

	cancelled, err := h.store.CancelReservation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reservation not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	h.invalidateCalendar()
	h.dispatch(events.ChangeEvent{Type: events.EventUpdate, Record: &cancelled, Previous: &previous})
	c.JSON(http.StatusOK, cancelled)
}

type paymentUpdateRequest struct {
	Status model.PaymentStatus `json:"status" binding:"required"`
}

// PostPaymentStatus handles POST /api/reservations/{id}/payment. Payment
// processing happens elsewhere; this endpoint is where its outcome lands.
func (h *Handler) PostPaymentStatus(c *gin.Context) {
	var req paymentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	previous, err := h.store.GetReservation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reservation not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reservation"})
		return
	}

	updated, err := h.store.UpdatePaymentStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update payment status"})
		return
	}

	h.invalidateCalendar()
	h.dispatch(events.ChangeEvent{Type: events.EventUpdate, Record: &updated, Previous: &previous})
	c.JSON(http.StatusOK, updated)
}

// totalAmount prices an interval against the facility's rate. Hourly rates
// are prorated by minute; session rates are flat.
func totalAmount(f model.Facility, iv interval.Interval) int64 {
	if f.PriceUnit == model.PricePerSession {
		return f.Price
	}
	return f.Price * int64(iv.Minutes()) / 60
}
