// Package remote gives the engine its view of the backing store: a query
// interface over HTTP and an ordered change-event stream. The engine never
// talks to the database; everything goes through these two interfaces.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"facility-booking-backend/internal/model"
)

// ErrRemote wraps any network or backend failure from the query interface.
// Callers never retry inline; the next natural refetch trigger retries.
var ErrRemote = errors.New("remote request failed")

// CreateRequest is the payload for creating a reservation.
type CreateRequest struct {
	FacilityID    string `json:"facilityId"`
	Date          string `json:"date"`
	StartMinute   int    `json:"startMinute"`
	EndMinute     int    `json:"endMinute"`
	Purpose       string `json:"purpose"`
	CreatedBy     string `json:"createdBy"`
	PaymentMethod string `json:"paymentMethod"`
}

// Client is the remote query interface the engine consumes.
type Client interface {
	ListFacilities(ctx context.Context) ([]model.Facility, error)
	ListReservations(ctx context.Context, facilityID, dateFrom, dateTo string) ([]model.Reservation, error)
	CreateReservation(ctx context.Context, req CreateRequest) (model.Reservation, error)
	GetReservation(ctx context.Context, id string) (model.Reservation, error)
	CancelReservation(ctx context.Context, id string) (model.Reservation, error)
}

// HTTPClient talks to the facility backend's REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a client against the given base URL, e.g.
// "http://localhost:8080".
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) ListFacilities(ctx context.Context) ([]model.Facility, error) {
	var out []model.Facility
	if err := c.get(ctx, "/api/facilities", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListReservations(ctx context.Context, facilityID, dateFrom, dateTo string) ([]model.Reservation, error) {
	q := url.Values{}
	q.Set("date_from", dateFrom)
	q.Set("date_to", dateTo)
	if facilityID != "" {
		q.Set("facility_id", facilityID)
	}

	var out []model.Reservation
	if err := c.get(ctx, "/api/reservations?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateReservation(ctx context.Context, req CreateRequest) (model.Reservation, error) {
	var out model.Reservation
	if err := c.post(ctx, "/api/reservations", req, &out); err != nil {
		return model.Reservation{}, err
	}
	return out, nil
}

func (c *HTTPClient) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	var out model.Reservation
	if err := c.get(ctx, "/api/reservations/"+url.PathEscape(id), &out); err != nil {
		return model.Reservation{}, err
	}
	return out, nil
}

func (c *HTTPClient) CancelReservation(ctx context.Context, id string) (model.Reservation, error) {
	var out model.Reservation
	if err := c.post(ctx, "/api/reservations/"+url.PathEscape(id)+"/cancel", nil, &out); err != nil {
		return model.Reservation{}, err
	}
	return out, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	return c.do(req, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRemote, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return model.ErrConflict
	case resp.StatusCode == http.StatusNotFound:
		return model.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrRemote, err)
	}
	return nil
}
