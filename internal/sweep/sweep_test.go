package sweep

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"facility-booking-backend/config"
	"facility-booking-backend/internal/events"
	"facility-booking-backend/internal/model"
	"facility-booking-backend/internal/store"
)

type captureSender struct {
	mu   sync.Mutex
	sent []events.ChangeEvent
}

func (c *captureSender) Send(_ context.Context, _ []byte, value []byte) error {
	var ev events.ChangeEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, ev)
	return nil
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func newTestStore(t *testing.T) store.Store {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Facility{}, &model.Reservation{}))
	return store.NewGormStore(db)
}

func seed(t *testing.T, s store.Store, date string, start, end int, status model.ReservationStatus) string {
	t.Helper()
	r := &model.Reservation{
		FacilityID:  "court-a",
		Date:        date,
		StartMinute: start,
		EndMinute:   end,
		Status:      status,
		CreatedBy:   "resident-1",
	}
	require.NoError(t, s.CreateReservation(context.Background(), r))
	return r.ID
}

func fixedClock(date string, minute int) func() time.Time {
	day, _ := time.Parse("2006-01-02", date)
	at := day.Add(time.Duration(minute) * time.Minute)
	return func() time.Time { return at }
}

func TestSweepOnce_CompletesExpiredReservations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pastID := seed(t, s, "2025-03-01", 540, 600, model.StatusConfirmed)
	endsNowID := seed(t, s, "2025-03-01", 600, 660, model.StatusConfirmed)
	futureID := seed(t, s, "2025-03-01", 660, 720, model.StatusConfirmed)
	yesterdayID := seed(t, s, "2025-02-28", 540, 600, model.StatusPending)

	sender := &captureSender{}
	pub := events.NewPublisher(sender, 16)
	pub.Start(ctx)

	svc := NewService(&config.Config{}, s, pub)
	svc.now = fixedClock("2025-03-01", 660) // 11:00

	svc.SweepOnce(ctx)

	for _, tc := range []struct {
		id   string
		want model.ReservationStatus
	}{
		{pastID, model.StatusCompleted},
		{endsNowID, model.StatusCompleted},
		{futureID, model.StatusConfirmed},
		{yesterdayID, model.StatusCompleted},
	} {
		r, err := s.GetReservation(ctx, tc.id)
		require.NoError(t, err)
		assert.Equal(t, tc.want, r.Status, "reservation %s", tc.id)
	}

	// One update event per transition reaches the feed.
	require.Eventually(t, func() bool { return sender.count() == 3 }, time.Second, time.Millisecond)
	sender.mu.Lock()
	defer sender.mu.Unlock()
	for _, ev := range sender.sent {
		assert.Equal(t, events.EventUpdate, ev.Type)
		require.NotNil(t, ev.Record)
		assert.Equal(t, model.StatusCompleted, ev.Record.Status)
	}
}

func TestSweepOnce_IgnoresInactiveRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := seed(t, s, "2025-03-01", 540, 600, model.StatusConfirmed)
	_, err := s.CancelReservation(ctx, id)
	require.NoError(t, err)

	svc := NewService(&config.Config{}, s, nil)
	svc.now = fixedClock("2025-03-01", 720)

	svc.SweepOnce(ctx)

	r, err := s.GetReservation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, r.Status, "a cancelled reservation never completes")
}

func TestSweepOnce_NothingToDo(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(&config.Config{}, s, nil)
	svc.now = fixedClock("2025-03-01", 480)

	// No rows at all; the sweep is a quiet no-op.
	svc.SweepOnce(context.Background())
}

func TestRun_DisabledDoesNotLoop(t *testing.T) {
	s := newTestStore(t)
	cfg := &config.Config{}
	cfg.Sweep.Enabled = false

	svc := NewService(cfg, s, nil)

	done := make(chan struct{})
	go func() {
		svc.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run must return immediately when the sweep is disabled")
	}
}
