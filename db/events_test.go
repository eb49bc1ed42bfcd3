// ABOUTME: Tests for event persistence and sync-state transitions
// ABOUTME: Runs against an in-memory sqlite database
package db

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stallbook/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func sampleEvent() *models.LocalEvent {
	end := time.Date(2024, 4, 20, 17, 0, 0, 0, time.UTC)
	return &models.LocalEvent{
		Title:               "Harbor market",
		Description:         "Weekend stall",
		StartDate:           time.Date(2024, 4, 20, 8, 0, 0, 0, time.UTC),
		EndDate:             &end,
		Location:            "Pier 3",
		EventType:           models.EventTypeFair,
		EventCategory:       "weekly",
		ExpectedAttendees:   80,
		ProductsToBring:     []string{"jam", "bread", "honey"},
		SpecialRequirements: "tent weights",
		EstimatedRevenue:    640.25,
	}
}

func TestCreateAndGetEventRoundTrip(t *testing.T) {
	database := setupTestDB(t)

	event := sampleEvent()
	require.NoError(t, CreateEvent(database, event))
	assert.NotEqual(t, uuid.Nil, event.ID)

	stored, err := GetEvent(database, event.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, event.Title, stored.Title)
	assert.Equal(t, event.Description, stored.Description)
	assert.True(t, event.StartDate.Equal(stored.StartDate))
	require.NotNil(t, stored.EndDate)
	assert.True(t, event.EndDate.Equal(*stored.EndDate))
	assert.Equal(t, event.EventType, stored.EventType)
	assert.Equal(t, []string{"jam", "bread", "honey"}, stored.ProductsToBring)
	assert.Equal(t, event.EstimatedRevenue, stored.EstimatedRevenue)

	// Create applies defaults for fields the caller left empty.
	assert.Equal(t, models.DefaultCalendarID, stored.GoogleCalendarID)
	assert.Equal(t, models.SyncStatusPending, stored.SyncStatus)
}

func TestGetEventMissingReturnsNil(t *testing.T) {
	database := setupTestDB(t)

	stored, err := GetEvent(database, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestGetEventByGoogleID(t *testing.T) {
	database := setupTestDB(t)

	event := sampleEvent()
	event.GoogleEventID = "g-lookup"
	require.NoError(t, CreateEvent(database, event))

	stored, err := GetEventByGoogleID(database, "g-lookup")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, event.ID, stored.ID)

	missing, err := GetEventByGoogleID(database, "g-nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateEventOverwritesFields(t *testing.T) {
	database := setupTestDB(t)

	event := sampleEvent()
	require.NoError(t, CreateEvent(database, event))

	event.Title = "Harbor market (moved)"
	event.Location = "Pier 5"
	event.ProductsToBring = []string{"jam"}
	event.SyncStatus = models.SyncStatusPending
	require.NoError(t, UpdateEvent(database, event.ID, event))

	stored, err := GetEvent(database, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbor market (moved)", stored.Title)
	assert.Equal(t, "Pier 5", stored.Location)
	assert.Equal(t, []string{"jam"}, stored.ProductsToBring)
}

func TestDeleteEvent(t *testing.T) {
	database := setupTestDB(t)

	event := sampleEvent()
	require.NoError(t, CreateEvent(database, event))
	require.NoError(t, DeleteEvent(database, event.ID))

	stored, err := GetEvent(database, event.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestFindEventsInWindowBoundsAndOrder(t *testing.T) {
	database := setupTestDB(t)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, offset := range []int{3, 1, 5, 9} {
		event := sampleEvent()
		event.Title = fmt.Sprintf("Day %d", offset)
		event.StartDate = base.AddDate(0, 0, offset)
		event.EndDate = nil
		require.NoError(t, CreateEvent(database, event))
	}

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 5) // exclusive
	events, err := FindEventsInWindow(database, &from, &to)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "Day 1", events[0].Title)
	assert.Equal(t, "Day 3", events[1].Title)
}

func TestFindEventsToPushFiltersAndCaps(t *testing.T) {
	database := setupTestDB(t)

	statuses := []models.SyncStatus{
		models.SyncStatusPending,
		models.SyncStatusSynced,
		models.SyncStatusError,
		models.SyncStatusNotSynced,
	}
	for i, status := range statuses {
		event := sampleEvent()
		event.Title = fmt.Sprintf("Event %d", i)
		event.SyncStatus = status
		require.NoError(t, CreateEvent(database, event))
	}

	events, err := FindEventsToPush(database, 50)
	require.NoError(t, err)

	require.Len(t, events, 2)
	for _, event := range events {
		assert.Contains(t, []models.SyncStatus{models.SyncStatusPending, models.SyncStatusError}, event.SyncStatus)
	}

	capped, err := FindEventsToPush(database, 1)
	require.NoError(t, err)
	assert.Len(t, capped, 1)
}

func TestMarkEventSyncedClearsErrorAndSetsGoogleID(t *testing.T) {
	database := setupTestDB(t)

	event := sampleEvent()
	require.NoError(t, CreateEvent(database, event))
	require.NoError(t, MarkEventSyncError(database, event.ID, "rate limited", time.Now()))

	stored, err := GetEvent(database, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, stored.SyncStatus)
	assert.Equal(t, "rate limited", stored.SyncError)
	require.NotNil(t, stored.LastSyncAt)

	at := time.Now()
	require.NoError(t, MarkEventSynced(database, event.ID, "g-new", at))

	stored, err = GetEvent(database, event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, stored.SyncStatus)
	assert.Empty(t, stored.SyncError)
	assert.Equal(t, "g-new", stored.GoogleEventID)
}

func TestMarkEventSyncedKeepsExistingGoogleID(t *testing.T) {
	database := setupTestDB(t)

	event := sampleEvent()
	event.GoogleEventID = "g-keep"
	require.NoError(t, CreateEvent(database, event))

	require.NoError(t, MarkEventSynced(database, event.ID, "", time.Now()))

	stored, err := GetEvent(database, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "g-keep", stored.GoogleEventID)
	assert.Equal(t, models.SyncStatusSynced, stored.SyncStatus)
}
