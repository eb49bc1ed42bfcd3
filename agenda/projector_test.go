// ABOUTME: Tests for the merged agenda projection
// ABOUTME: Covers ordering, truncation, and virtual delivery synthesis
package agenda

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stallbook/db"
	"stallbook/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func storedEvent(t *testing.T, database *sql.DB, title string, start time.Time) *models.LocalEvent {
	t.Helper()
	event := &models.LocalEvent{
		Title:      title,
		StartDate:  start,
		EventType:  models.EventTypeFair,
		SyncStatus: models.SyncStatusSynced,
	}
	require.NoError(t, db.CreateEvent(database, event))
	return event
}

func deliveryOrder(t *testing.T, database *sql.DB, customer string, scheduled time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		CustomerName:  customer,
		Type:          models.OrderTypeDelivery,
		Status:        models.OrderStatusScheduled,
		ScheduledDate: &scheduled,
	}
	require.NoError(t, db.CreateOrder(database, order))
	return order
}

func TestMergedAgendaOrdersByStartDate(t *testing.T) {
	database := setupTestDB(t)
	projector := NewProjector(database)

	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	storedEvent(t, database, "Morning stall", base)
	storedEvent(t, database, "Afternoon meeting", base.Add(4*time.Hour))
	order := deliveryOrder(t, database, "Dana", base.Add(2*time.Hour))

	events, err := projector.Events(ModeUpcoming)
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, "Morning stall", events[0].Title)
	assert.True(t, events[1].Virtual)
	assert.Equal(t, models.VirtualIDPrefix+order.ID.String(), events[1].ID)
	assert.Equal(t, "Afternoon meeting", events[2].Title)
}

func TestUpcomingTruncatesToFive(t *testing.T) {
	database := setupTestDB(t)
	projector := NewProjector(database)

	base := time.Now().Add(time.Hour)
	for i := 0; i < 8; i++ {
		storedEvent(t, database, fmt.Sprintf("Event %d", i), base.Add(time.Duration(i)*time.Hour))
	}

	events, err := projector.Events(ModeUpcoming)
	require.NoError(t, err)

	require.Len(t, events, 5)
	for i, event := range events {
		assert.Equal(t, fmt.Sprintf("Event %d", i), event.Title)
	}
}

func TestVirtualEventDefaultDuration(t *testing.T) {
	scheduled := time.Date(2024, 9, 1, 15, 0, 0, 0, time.UTC)
	order := &models.Order{
		ID:            uuid.New(),
		CustomerName:  "Avery",
		Type:          models.OrderTypeDelivery,
		Status:        models.OrderStatusScheduled,
		ScheduledDate: &scheduled,
	}

	entry, ok := VirtualEvent(order)
	require.True(t, ok)

	assert.True(t, entry.StartDate.Equal(scheduled))
	assert.True(t, entry.EndDate.Equal(scheduled.Add(30*time.Minute)))
}

func TestVirtualEventUsesDeliveryDateWhenPresent(t *testing.T) {
	scheduled := time.Date(2024, 9, 1, 15, 0, 0, 0, time.UTC)
	delivered := scheduled.Add(2 * time.Hour)
	order := &models.Order{
		ID:            uuid.New(),
		Type:          models.OrderTypeDelivery,
		Status:        models.OrderStatusDelivered,
		ScheduledDate: &scheduled,
		DeliveryDate:  &delivered,
	}

	entry, ok := VirtualEvent(order)
	require.True(t, ok)

	assert.True(t, entry.EndDate.Equal(delivered))
	assert.Equal(t, "completed", entry.Status)
}

func TestVirtualEventShape(t *testing.T) {
	scheduled := time.Now()
	order := &models.Order{
		ID:              uuid.MustParse("5f4a9b6c-0d3e-4f21-8a7b-1c2d3e4f5a6b"),
		CustomerName:    "Morgan",
		Type:            models.OrderTypeDelivery,
		Status:          models.OrderStatusScheduled,
		ScheduledDate:   &scheduled,
		DeliveryAddress: "44 Pine Rd",
	}

	entry, ok := VirtualEvent(order)
	require.True(t, ok)

	assert.Equal(t, "order_5f4a9b6c-0d3e-4f21-8a7b-1c2d3e4f5a6b", entry.ID)
	assert.Equal(t, "Delivery #4f5a6b", entry.Title)
	assert.Contains(t, entry.Description, "Morgan")
	assert.Equal(t, models.EventTypeDelivery, entry.EventType)
	assert.Equal(t, "44 Pine Rd", entry.Location)
	assert.Equal(t, "scheduled", entry.Status)
	assert.Equal(t, models.SyncStatusSynced, entry.SyncStatus)
	assert.True(t, entry.Virtual)
}

func TestOrderWithoutScheduledDateIsExcluded(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Type: models.OrderTypeDelivery}

	_, ok := VirtualEvent(order)
	assert.False(t, ok)
}

func TestAllModeWindowsToCurrentMonth(t *testing.T) {
	database := setupTestDB(t)
	projector := NewProjector(database)

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	inMonth := storedEvent(t, database, "This month", monthStart.Add(12*time.Hour))
	storedEvent(t, database, "Next month", monthStart.AddDate(0, 1, 2))
	storedEvent(t, database, "Last month", monthStart.AddDate(0, -1, 15))

	events, err := projector.Events(ModeAll)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, inMonth.ID.String(), events[0].ID)
}

func TestRepeatedProjectionIsStable(t *testing.T) {
	database := setupTestDB(t)
	projector := NewProjector(database)

	base := time.Now().Add(time.Hour)
	storedEvent(t, database, "Stall", base)
	deliveryOrder(t, database, "Kim", base) // identical start time

	first, err := projector.Events(ModeUpcoming)
	require.NoError(t, err)
	second, err := projector.Events(ModeUpcoming)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}
