package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facility-booking-backend/internal/model"
)

func TestHTTPClient_ListReservations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reservations", r.URL.Path)
		assert.Equal(t, "court-a", r.URL.Query().Get("facility_id"))
		assert.Equal(t, "2025-03-01", r.URL.Query().Get("date_from"))
		assert.Equal(t, "2025-03-01", r.URL.Query().Get("date_to"))

		json.NewEncoder(w).Encode([]model.Reservation{
			{ID: "r1", FacilityID: "court-a", Date: "2025-03-01", StartMinute: 540, EndMinute: 600, Status: model.StatusConfirmed},
		})
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL)
	got, err := c.ListReservations(context.Background(), "court-a", "2025-03-01", "2025-03-01")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, 540, got[0].StartMinute)
}

func TestHTTPClient_CreateReservationConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "Time range is already reserved"})
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL)
	_, err := c.CreateReservation(context.Background(), CreateRequest{
		FacilityID: "court-a", Date: "2025-03-01", StartMinute: 540, EndMinute: 600, CreatedBy: "resident-1",
	})
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestHTTPClient_ErrorTaxonomy(t *testing.T) {
	testCases := []struct {
		name      string
		status    int
		expectErr error
	}{
		{name: "not found", status: http.StatusNotFound, expectErr: model.ErrNotFound},
		{name: "server error", status: http.StatusInternalServerError, expectErr: ErrRemote},
		{name: "rate limited", status: http.StatusTooManyRequests, expectErr: ErrRemote},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			c := NewHTTPClient(server.URL)
			_, err := c.GetReservation(context.Background(), "r1")
			assert.ErrorIs(t, err, tc.expectErr)
		})
	}
}

func TestHTTPClient_NetworkFailureIsRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	c := NewHTTPClient(server.URL)
	_, err := c.ListFacilities(context.Background())
	assert.ErrorIs(t, err, ErrRemote)
}
