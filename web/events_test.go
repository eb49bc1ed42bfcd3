// ABOUTME: HTTP tests for the events API and the virtual mutation guard
// ABOUTME: Drives the full router through httptest with an in-memory store
package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stallbook/db"
	"stallbook/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	log := zerolog.Nop()
	return NewServer(":0", database, &log, "UTC")
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

func validEventPayload() map[string]interface{} {
	return map[string]interface{}{
		"title":      "Night market",
		"start_date": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"event_type": "fair",
	}
}

func TestCreateThenGetEvent(t *testing.T) {
	s := newTestServer(t)

	payload := validEventPayload()
	payload["products_to_bring"] = []string{"cheese", "olives"}
	rec := doJSON(t, s, http.MethodPost, "/events", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.LocalEvent
	decodeBody(t, rec, &created)
	assert.Equal(t, "Night market", created.Title)
	assert.Equal(t, models.SyncStatusPending, created.SyncStatus)
	assert.Equal(t, models.DefaultCalendarID, created.GoogleCalendarID)

	rec = doJSON(t, s, http.MethodGet, "/events/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched models.LocalEvent
	decodeBody(t, rec, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, []string{"cheese", "olives"}, fetched.ProductsToBring)
}

func TestCreateEventValidation(t *testing.T) {
	s := newTestServer(t)

	for name, payload := range map[string]map[string]interface{}{
		"missing title": {
			"start_date": time.Now().Format(time.RFC3339),
			"event_type": "fair",
		},
		"missing start date": {
			"title":      "No start",
			"event_type": "fair",
		},
		"unknown event type": {
			"title":      "Bad type",
			"start_date": time.Now().Format(time.RFC3339),
			"event_type": "party",
		},
		"synced status not allowed on create": {
			"title":       "Pre-synced",
			"start_date":  time.Now().Format(time.RFC3339),
			"event_type":  "fair",
			"sync_status": "synced",
		},
	} {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/events", payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateEventExplicitNotSynced(t *testing.T) {
	s := newTestServer(t)

	payload := validEventPayload()
	payload["sync_status"] = "not_synced"
	rec := doJSON(t, s, http.MethodPost, "/events", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.LocalEvent
	decodeBody(t, rec, &created)
	assert.Equal(t, models.SyncStatusNotSynced, created.SyncStatus)
}

func TestUpdateEventRequeuesForPush(t *testing.T) {
	s := newTestServer(t)

	event := &models.LocalEvent{
		Title:         "Original",
		StartDate:     time.Now().Add(24 * time.Hour),
		EventType:     models.EventTypeFair,
		GoogleEventID: "g-55",
		SyncStatus:    models.SyncStatusSynced,
	}
	require.NoError(t, db.CreateEvent(s.db, event))

	payload := validEventPayload()
	payload["title"] = "Renamed"
	rec := doJSON(t, s, http.MethodPut, "/events/"+event.ID.String(), payload)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := db.GetEvent(s.db, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)
	assert.Equal(t, models.SyncStatusPending, stored.SyncStatus)
	// Provider linkage survives the edit so push updates in place.
	assert.Equal(t, "g-55", stored.GoogleEventID)
}

func TestVirtualEventMutationsAreRejected(t *testing.T) {
	s := newTestServer(t)

	scheduled := time.Now().Add(24 * time.Hour)
	order := &models.Order{
		CustomerName:  "Dana",
		Type:          models.OrderTypeDelivery,
		Status:        models.OrderStatusScheduled,
		ScheduledDate: &scheduled,
	}
	require.NoError(t, db.CreateOrder(s.db, order))
	virtualID := models.VirtualIDPrefix + order.ID.String()

	rec := doJSON(t, s, http.MethodPut, "/events/"+virtualID, validEventPayload())
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/events/"+virtualID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/events/"+virtualID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The rejected mutations touched nothing: the order row is intact and
	// no event row was created.
	orders, err := db.FindDeliveryOrdersInWindow(s.db, nil, nil)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "Dana", orders[0].CustomerName)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestGetEventBadIDAndMissing(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/events/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/events/6ba7b810-9dad-11d1-80b4-00c04fd430c8", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteEventWithoutProviderLink(t *testing.T) {
	s := newTestServer(t)

	event := &models.LocalEvent{
		Title:     "Local only",
		StartDate: time.Now().Add(24 * time.Hour),
		EventType: models.EventTypeMeeting,
	}
	require.NoError(t, db.CreateEvent(s.db, event))

	rec := doJSON(t, s, http.MethodDelete, "/events/"+event.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := db.GetEvent(s.db, event.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestMergedListIncludesVirtualEntry(t *testing.T) {
	s := newTestServer(t)

	start := time.Now().Add(time.Hour)
	require.NoError(t, db.CreateEvent(s.db, &models.LocalEvent{
		Title:     "Stall shift",
		StartDate: start,
		EventType: models.EventTypeFair,
	}))

	scheduled := start.Add(time.Hour)
	order := &models.Order{
		Type:          models.OrderTypeDelivery,
		Status:        models.OrderStatusScheduled,
		ScheduledDate: &scheduled,
	}
	require.NoError(t, db.CreateOrder(s.db, order))

	rec := doJSON(t, s, http.MethodGet, "/events/upcoming", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Events []models.AgendaEvent `json:"events"`
		Count  int                  `json:"count"`
	}
	decodeBody(t, rec, &body)

	require.Equal(t, 2, body.Count)
	assert.Equal(t, "Stall shift", body.Events[0].Title)
	assert.False(t, body.Events[0].Virtual)
	assert.True(t, body.Events[1].Virtual)
	assert.Equal(t, fmt.Sprintf("order_%s", order.ID), body.Events[1].ID)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
}
