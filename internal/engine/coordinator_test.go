package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facility-booking-backend/internal/interval"
	"facility-booking-backend/internal/model"
	"facility-booking-backend/internal/slot"
)

func candidate(start, end int) Candidate {
	return Candidate{
		FacilityID: "court-a",
		Date:       "2025-03-01",
		Interval:   interval.Interval{Start: start, End: end},
		Purpose:    "practice",
		CreatedBy:  "resident-7",
	}
}

func TestSubmitReservation_RejectsInvalidInterval(t *testing.T) {
	client := newFakeClient()
	e := New(client, nil, RealClock{}, testConfig())

	_, err := e.SubmitReservation(context.Background(), candidate(600, 600))
	require.ErrorIs(t, err, interval.ErrInvalidInterval)
	assert.Empty(t, client.created)
	assert.Zero(t, client.listCallCount(), "validation fails before any fetch")
}

func TestSubmitReservation_RejectsOutsideOperatingHours(t *testing.T) {
	client := newFakeClient()
	e := New(client, nil, RealClock{}, testConfig())

	_, err := e.SubmitReservation(context.Background(), candidate(360, 420))
	require.ErrorIs(t, err, slot.ErrOutsideOperatingHours)
	assert.Empty(t, client.created)
}

func TestSubmitReservation_ColdCacheForcesFetchBeforeDeciding(t *testing.T) {
	client := newFakeClient()
	key := Key{FacilityID: "court-a", Date: "2025-03-01"}
	client.setList(key, []model.Reservation{{
		ID: "other", FacilityID: "court-a", Date: "2025-03-01",
		StartMinute: 600, EndMinute: 660, Status: model.StatusConfirmed,
	}})

	e := New(client, nil, RealClock{}, testConfig())

	// Nothing cached locally; a submit may not assume "free" from absence
	// of data. The coordinator fetches first and then refuses locally.
	_, err := e.SubmitReservation(context.Background(), candidate(600, 660))
	require.ErrorIs(t, err, model.ErrConflict)
	assert.Equal(t, 1, client.listCallCount())
	assert.Empty(t, client.created, "no network write for a locally detected conflict")
}

func TestSubmitReservation_ColdCacheSettlesWithoutSecondFetch(t *testing.T) {
	client := newFakeClient()
	e := New(client, nil, RealClock{}, testConfig())

	// The forced load moves the version stamp, so the coordinator takes a
	// second decision pass; that pass must run on the just-cached data,
	// not fetch again.
	_, err := e.SubmitReservation(context.Background(), candidate(600, 660))
	require.NoError(t, err)
	assert.Equal(t, 1, client.listCallCount())
}

func TestSubmitReservation_WarmCacheDecidesInOnePass(t *testing.T) {
	client := newFakeClient()
	e := New(client, nil, RealClock{}, testConfig())

	key := Key{FacilityID: "court-a", Date: "2025-03-01"}
	e.cache.Put(key, nil)

	// Nothing moves the stamp mid-check, so no fetch happens at all.
	_, err := e.SubmitReservation(context.Background(), candidate(600, 660))
	require.NoError(t, err)
	assert.Zero(t, client.listCallCount())
}

func TestSubmitReservation_FreeIntervalSubmits(t *testing.T) {
	client := newFakeClient()
	e := New(client, nil, RealClock{}, testConfig())

	created, err := e.SubmitReservation(context.Background(), candidate(600, 660))
	require.NoError(t, err)
	assert.Equal(t, "created-1", created.ID)
	require.Len(t, client.created, 1)
	assert.Equal(t, 600, client.created[0].StartMinute)

	// The write invalidated the key; the next read refetches.
	_, found := e.cache.Get(Key{FacilityID: "court-a", Date: "2025-03-01"})
	assert.False(t, found)
}

func TestSubmitReservation_PartialOverlapConflicts(t *testing.T) {
	client := newFakeClient()
	key := Key{FacilityID: "court-a", Date: "2025-03-01"}
	client.setList(key, []model.Reservation{{
		ID: "other", FacilityID: "court-a", Date: "2025-03-01",
		StartMinute: 570, EndMinute: 630, Status: model.StatusPending,
	}})

	e := New(client, nil, RealClock{}, testConfig())

	_, err := e.SubmitReservation(context.Background(), candidate(600, 660))
	require.ErrorIs(t, err, model.ErrConflict)
}

func TestSubmitReservation_AdjacentIntervalIsNotAConflict(t *testing.T) {
	client := newFakeClient()
	key := Key{FacilityID: "court-a", Date: "2025-03-01"}
	client.setList(key, []model.Reservation{{
		ID: "other", FacilityID: "court-a", Date: "2025-03-01",
		StartMinute: 540, EndMinute: 600, Status: model.StatusConfirmed,
	}})

	e := New(client, nil, RealClock{}, testConfig())

	_, err := e.SubmitReservation(context.Background(), candidate(600, 660))
	require.NoError(t, err)
}

func TestSubmitReservation_ServerConflictSurfaces(t *testing.T) {
	client := newFakeClient()
	client.createErr = model.ErrConflict

	e := New(client, nil, RealClock{}, testConfig())

	// The local view says free, but another client won the race and the
	// store's constraint refused the write.
	_, err := e.SubmitReservation(context.Background(), candidate(600, 660))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConflict))
}

func TestSubmitReservation_CancelledReservationDoesNotBlock(t *testing.T) {
	client := newFakeClient()
	key := Key{FacilityID: "court-a", Date: "2025-03-01"}
	client.setList(key, []model.Reservation{{
		ID: "gone", FacilityID: "court-a", Date: "2025-03-01",
		StartMinute: 600, EndMinute: 660, Status: model.StatusCancelled,
	}})

	e := New(client, nil, RealClock{}, testConfig())

	_, err := e.SubmitReservation(context.Background(), candidate(600, 660))
	require.NoError(t, err)
}
