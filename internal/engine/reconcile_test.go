package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facility-booking-backend/internal/events"
	"facility-booking-backend/internal/model"
)

func observedEngine(t *testing.T, client *fakeClient, keys ...Key) *Engine {
	t.Helper()
	e := New(client, nil, RealClock{}, testConfig())
	e.mu.Lock()
	for _, k := range keys {
		e.observed[k] = &keyState{observers: 1}
	}
	e.mu.Unlock()
	return e
}

func observedList(e *Engine, key Key) []model.Reservation {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.observed[key]
	if !ok {
		return nil
	}
	return append([]model.Reservation(nil), st.list...)
}

func reservation(id string, start, end int) *model.Reservation {
	return &model.Reservation{
		ID: id, FacilityID: "court-a", Date: "2025-03-01",
		StartMinute: start, EndMinute: end, Status: model.StatusPending,
	}
}

func TestApplyEvent_InsertIsIdempotent(t *testing.T) {
	key := Key{FacilityID: "court-a", Date: "2025-03-01"}
	e := observedEngine(t, newFakeClient(), key)

	ev := events.ChangeEvent{Type: events.EventInsert, Record: reservation("r1", 540, 600)}
	e.applyEvent(ev)
	e.applyEvent(ev)

	list := observedList(e, key)
	require.Len(t, list, 1, "the same insert delivered twice yields one entry")
	assert.Equal(t, "r1", list[0].ID)
}

func TestApplyEvent_InsertKeepsListSorted(t *testing.T) {
	key := Key{FacilityID: "court-a", Date: "2025-03-01"}
	e := observedEngine(t, newFakeClient(), key)

	e.applyEvent(events.ChangeEvent{Type: events.EventInsert, Record: reservation("late", 720, 780)})
	e.applyEvent(events.ChangeEvent{Type: events.EventInsert, Record: reservation("early", 480, 540)})

	list := observedList(e, key)
	require.Len(t, list, 2)
	assert.Equal(t, "early", list[0].ID)
	assert.Equal(t, "late", list[1].ID)
}

func TestApplyEvent_InsertIgnoresInactiveRecord(t *testing.T) {
	key := Key{FacilityID: "court-a", Date: "2025-03-01"}
	e := observedEngine(t, newFakeClient(), key)

	rec := reservation("r1", 540, 600)
	rec.Status = model.StatusCancelled
	e.applyEvent(events.ChangeEvent{Type: events.EventInsert, Record: rec})

	assert.Empty(t, observedList(e, key))
}

func TestApplyEvent_DeleteAbsentIsNoOp(t *testing.T) {
	key := Key{FacilityID: "court-a", Date: "2025-03-01"}
	e := observedEngine(t, newFakeClient(), key)

	e.applyEvent(events.ChangeEvent{Type: events.EventInsert, Record: reservation("r1", 540, 600)})
	e.applyEvent(events.ChangeEvent{Type: events.EventDelete, Record: reservation("never-seen", 600, 660)})

	list := observedList(e, key)
	require.Len(t, list, 1)
	assert.Equal(t, "r1", list[0].ID)
}

func TestApplyEvent_DeleteRemovesById(t *testing.T) {
	key := Key{FacilityID: "court-a", Date: "2025-03-01"}
	e := observedEngine(t, newFakeClient(), key)

	e.applyEvent(events.ChangeEvent{Type: events.EventInsert, Record: reservation("r1", 540, 600)})
	e.applyEvent(events.ChangeEvent{Type: events.EventInsert, Record: reservation("r2", 600, 660)})
	e.applyEvent(events.ChangeEvent{Type: events.EventDelete, Record: reservation("r1", 540, 600)})

	list := observedList(e, key)
	require.Len(t, list, 1)
	assert.Equal(t, "r2", list[0].ID)
}

func TestApplyEvent_InvalidatesCacheBeforeAnythingElse(t *testing.T) {
	key := Key{FacilityID: "court-a", Date: "2025-03-01"}
	e := New(newFakeClient(), nil, RealClock{}, testConfig())
	e.cache.Put(key, []model.Reservation{{ID: "stale"}})

	// The key is not observed; the event still dirties the cache.
	e.applyEvent(events.ChangeEvent{Type: events.EventInsert, Record: reservation("r1", 540, 600)})

	_, found := e.cache.Get(key)
	assert.False(t, found)
}

func TestApplyEvent_UpdateTriggersRefetchForObservedKey(t *testing.T) {
	client := newFakeClient()
	key := Key{FacilityID: "court-a", Date: "2025-03-01"}
	e := observedEngine(t, client, key)

	rec := reservation("r1", 540, 600)
	rec.Status = model.StatusConfirmed
	e.applyEvent(events.ChangeEvent{Type: events.EventUpdate, Record: rec, Previous: reservation("r1", 540, 600)})

	require.Eventually(t, func() bool { return client.listCallCount() >= 1 }, time.Second, time.Millisecond)
	assert.Equal(t, key, client.lastListCall())
}

func TestApplyEvent_UpdateForUnobservedKeyOnlyInvalidates(t *testing.T) {
	client := newFakeClient()
	e := New(client, nil, RealClock{}, testConfig())
	key := Key{FacilityID: "court-a", Date: "2025-03-01"}
	e.cache.Put(key, []model.Reservation{{ID: "stale"}})

	e.applyEvent(events.ChangeEvent{Type: events.EventUpdate, Record: reservation("r1", 540, 600), Previous: reservation("r1", 540, 600)})

	_, found := e.cache.Get(key)
	assert.False(t, found)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, client.listCallCount(), "no fetch for a key nobody watches")
}

func TestApplyEvent_CrossKeyMoveDirtiesBothKeys(t *testing.T) {
	client := newFakeClient()
	oldKey := Key{FacilityID: "court-a", Date: "2025-03-01"}
	newKey := Key{FacilityID: "court-a", Date: "2025-03-02"}
	e := observedEngine(t, client, oldKey, newKey)
	e.cache.Put(oldKey, nil)
	e.cache.Put(newKey, nil)

	moved := reservation("r1", 540, 600)
	moved.Date = newKey.Date
	e.applyEvent(events.ChangeEvent{Type: events.EventUpdate, Record: moved, Previous: reservation("r1", 540, 600)})

	_, foundOld := e.cache.Get(oldKey)
	_, foundNew := e.cache.Get(newKey)
	assert.False(t, foundOld)
	assert.False(t, foundNew)

	// Both observed keys refetch.
	require.Eventually(t, func() bool { return client.listCallCount() >= 2 }, time.Second, time.Millisecond)
	keys := make(map[Key]bool)
	client.mu.Lock()
	for _, k := range client.listCalls {
		keys[k] = true
	}
	client.mu.Unlock()
	assert.True(t, keys[oldKey])
	assert.True(t, keys[newKey])
}
