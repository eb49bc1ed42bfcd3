// ABOUTME: Read-side projection merging stored events with delivery orders
// ABOUTME: Produces one deterministically ordered agenda view, never persisted
package agenda

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"stallbook/db"
	"stallbook/models"
)

// Mode selects the projection window.
type Mode string

const (
	// ModeAll covers the current calendar month.
	ModeAll Mode = "all"
	// ModeUpcoming runs from now, truncated to the first entries.
	ModeUpcoming Mode = "upcoming"
)

const (
	upcomingLimit = 5
	// Orders without a delivery date get a nominal half-hour slot.
	defaultDeliveryDuration = 30 * time.Minute
)

// Projector combines stored local events with delivery orders into one
// merged agenda. It is a pure read path: nothing it produces is written
// back, and virtual entries never reach the sync engine.
type Projector struct {
	db *sql.DB
}

func NewProjector(database *sql.DB) *Projector {
	return &Projector{db: database}
}

// Events returns the merged agenda for the given mode, stable-sorted
// ascending by start date. Stability makes repeated calls over unchanged
// inputs return identical orderings.
func (p *Projector) Events(mode Mode) ([]models.AgendaEvent, error) {
	from, to := window(mode, time.Now())

	stored, err := db.FindEventsInWindow(p.db, &from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	orders, err := db.FindDeliveryOrdersInWindow(p.db, &from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load delivery orders: %w", err)
	}

	merged := make([]models.AgendaEvent, 0, len(stored)+len(orders))
	for i := range stored {
		merged = append(merged, fromLocalEvent(&stored[i]))
	}
	for i := range orders {
		if entry, ok := VirtualEvent(&orders[i]); ok {
			merged = append(merged, entry)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].StartDate.Before(merged[j].StartDate)
	})

	if mode == ModeUpcoming && len(merged) > upcomingLimit {
		merged = merged[:upcomingLimit]
	}

	return merged, nil
}

func window(mode Mode, now time.Time) (time.Time, *time.Time) {
	if mode == ModeUpcoming {
		return now, nil
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)
	return monthStart, &monthEnd
}

func fromLocalEvent(e *models.LocalEvent) models.AgendaEvent {
	end := e.StartDate
	if e.EndDate != nil {
		end = *e.EndDate
	}

	return models.AgendaEvent{
		ID:          e.ID.String(),
		Title:       e.Title,
		Description: e.Description,
		StartDate:   e.StartDate,
		EndDate:     end,
		AllDay:      e.AllDay,
		Location:    e.Location,
		EventType:   e.EventType,
		SyncStatus:  e.SyncStatus,
	}
}

// VirtualEvent projects a delivery order into event shape. Orders without
// a scheduled date have no place on the agenda and report ok=false.
func VirtualEvent(o *models.Order) (models.AgendaEvent, bool) {
	if o.ScheduledDate == nil {
		return models.AgendaEvent{}, false
	}

	start := *o.ScheduledDate
	end := start.Add(defaultDeliveryDuration)
	if o.DeliveryDate != nil {
		end = *o.DeliveryDate
	}

	status := "scheduled"
	if o.Status == models.OrderStatusDelivered {
		status = "completed"
	}

	id := o.ID.String()
	return models.AgendaEvent{
		ID:          models.VirtualIDPrefix + id,
		Title:       fmt.Sprintf("Delivery #%s", lastN(id, 6)),
		Description: fmt.Sprintf("Delivery for %s", o.CustomerName),
		StartDate:   start,
		EndDate:     end,
		Location:    o.DeliveryAddress,
		EventType:   models.EventTypeDelivery,
		Status:      status,
		SyncStatus:  models.SyncStatusSynced,
		Virtual:     true,
	}, true
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
