// ABOUTME: Event database operations
// ABOUTME: Handles CRUD, sync-state transitions, and window/batch queries
package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stallbook/models"
)

const eventColumns = `id, title, description, start_date, end_date, all_day, location, address,
	event_type, event_category, expected_attendees, products_to_bring, special_requirements,
	estimated_revenue, google_event_id, google_calendar_id, sync_status, sync_error,
	last_sync_at, created_by, assigned_to, created_at, updated_at`

func CreateEvent(db *sql.DB, event *models.LocalEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.GoogleCalendarID == "" {
		event.GoogleCalendarID = models.DefaultCalendarID
	}
	if event.SyncStatus == "" {
		event.SyncStatus = models.SyncStatusPending
	}

	_, err := db.Exec(`
		INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID.String(), event.Title, event.Description, event.StartDate, event.EndDate,
		event.AllDay, event.Location, event.Address, string(event.EventType), event.EventCategory,
		event.ExpectedAttendees, strings.Join(event.ProductsToBring, ","), event.SpecialRequirements,
		event.EstimatedRevenue, nullIfEmpty(event.GoogleEventID), event.GoogleCalendarID,
		string(event.SyncStatus), nullIfEmpty(event.SyncError), event.LastSyncAt,
		event.CreatedBy, event.AssignedTo, event.CreatedAt, event.UpdatedAt,
	)

	return err
}

func GetEvent(db *sql.DB, id uuid.UUID) (*models.LocalEvent, error) {
	row := db.QueryRow(`SELECT `+eventColumns+` FROM events WHERE id = ?`, id.String())
	return scanEvent(row)
}

// GetEventByGoogleID looks up the local counterpart of a provider event.
func GetEventByGoogleID(db *sql.DB, googleEventID string) (*models.LocalEvent, error) {
	row := db.QueryRow(`SELECT `+eventColumns+` FROM events WHERE google_event_id = ?`, googleEventID)
	return scanEvent(row)
}

// FindEventsInWindow returns events with start_date in [from, to), ordered
// ascending by start_date. A nil bound leaves that side open.
func FindEventsInWindow(db *sql.DB, from, to *time.Time) ([]models.LocalEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	var conds []string
	var args []interface{}
	if from != nil {
		conds = append(conds, "start_date >= ?")
		args = append(args, *from)
	}
	if to != nil {
		conds = append(conds, "start_date < ?")
		args = append(args, *to)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_date ASC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEvents(rows)
}

// FindEventsToPush returns events waiting for a push (pending or error),
// oldest first, capped at limit.
func FindEventsToPush(db *sql.DB, limit int) ([]models.LocalEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT `+eventColumns+` FROM events
		WHERE sync_status IN (?, ?)
		ORDER BY created_at ASC
		LIMIT ?
	`, string(models.SyncStatusPending), string(models.SyncStatusError), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEvents(rows)
}

func UpdateEvent(db *sql.DB, id uuid.UUID, updates *models.LocalEvent) error {
	updates.UpdatedAt = time.Now()

	_, err := db.Exec(`
		UPDATE events
		SET title = ?, description = ?, start_date = ?, end_date = ?, all_day = ?,
			location = ?, address = ?, event_type = ?, event_category = ?,
			expected_attendees = ?, products_to_bring = ?, special_requirements = ?,
			estimated_revenue = ?, google_event_id = ?, google_calendar_id = ?,
			sync_status = ?, sync_error = ?, last_sync_at = ?, assigned_to = ?, updated_at = ?
		WHERE id = ?
	`,
		updates.Title, updates.Description, updates.StartDate, updates.EndDate, updates.AllDay,
		updates.Location, updates.Address, string(updates.EventType), updates.EventCategory,
		updates.ExpectedAttendees, strings.Join(updates.ProductsToBring, ","), updates.SpecialRequirements,
		updates.EstimatedRevenue, nullIfEmpty(updates.GoogleEventID), updates.GoogleCalendarID,
		string(updates.SyncStatus), nullIfEmpty(updates.SyncError), updates.LastSyncAt,
		updates.AssignedTo, updates.UpdatedAt, id.String(),
	)

	return err
}

func DeleteEvent(db *sql.DB, id uuid.UUID) error {
	_, err := db.Exec(`DELETE FROM events WHERE id = ?`, id.String())
	return err
}

// MarkEventSynced records a successful sync outcome. A non-empty
// googleEventID is stored alongside (insert path returns the new id).
func MarkEventSynced(db *sql.DB, id uuid.UUID, googleEventID string, at time.Time) error {
	var err error
	if googleEventID != "" {
		_, err = db.Exec(`
			UPDATE events
			SET sync_status = ?, sync_error = NULL, google_event_id = ?, last_sync_at = ?, updated_at = ?
			WHERE id = ?
		`, string(models.SyncStatusSynced), googleEventID, at, at, id.String())
	} else {
		_, err = db.Exec(`
			UPDATE events
			SET sync_status = ?, sync_error = NULL, last_sync_at = ?, updated_at = ?
			WHERE id = ?
		`, string(models.SyncStatusSynced), at, at, id.String())
	}
	if err != nil {
		return fmt.Errorf("failed to mark event synced: %w", err)
	}
	return nil
}

// MarkEventSyncError records a per-record sync failure without touching
// the rest of the batch.
func MarkEventSyncError(db *sql.DB, id uuid.UUID, message string, at time.Time) error {
	_, err := db.Exec(`
		UPDATE events
		SET sync_status = ?, sync_error = ?, last_sync_at = ?, updated_at = ?
		WHERE id = ?
	`, string(models.SyncStatusError), message, at, at, id.String())
	if err != nil {
		return fmt.Errorf("failed to mark event sync error: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.LocalEvent, error) {
	event := &models.LocalEvent{}
	var (
		id               string
		description      sql.NullString
		endDate          sql.NullTime
		location         sql.NullString
		address          sql.NullString
		eventType        string
		eventCategory    sql.NullString
		attendees        sql.NullInt64
		products         sql.NullString
		specialReqs      sql.NullString
		revenue          sql.NullFloat64
		googleEventID    sql.NullString
		googleCalendarID string
		syncStatus       string
		syncError        sql.NullString
		lastSyncAt       sql.NullTime
		createdBy        sql.NullString
		assignedTo       sql.NullString
	)

	err := row.Scan(
		&id, &event.Title, &description, &event.StartDate, &endDate, &event.AllDay,
		&location, &address, &eventType, &eventCategory, &attendees, &products,
		&specialReqs, &revenue, &googleEventID, &googleCalendarID, &syncStatus,
		&syncError, &lastSyncAt, &createdBy, &assignedTo, &event.CreatedAt, &event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid event id %q: %w", id, err)
	}
	event.ID = parsed
	event.Description = description.String
	if endDate.Valid {
		event.EndDate = &endDate.Time
	}
	event.Location = location.String
	event.Address = address.String
	event.EventType = models.EventType(eventType)
	event.EventCategory = eventCategory.String
	event.ExpectedAttendees = int(attendees.Int64)
	if products.String != "" {
		event.ProductsToBring = strings.Split(products.String, ",")
	}
	event.SpecialRequirements = specialReqs.String
	event.EstimatedRevenue = revenue.Float64
	event.GoogleEventID = googleEventID.String
	event.GoogleCalendarID = googleCalendarID
	event.SyncStatus = models.SyncStatus(syncStatus)
	event.SyncError = syncError.String
	if lastSyncAt.Valid {
		event.LastSyncAt = &lastSyncAt.Time
	}
	event.CreatedBy = createdBy.String
	event.AssignedTo = assignedTo.String

	return event, nil
}

func collectEvents(rows *sql.Rows) ([]models.LocalEvent, error) {
	var events []models.LocalEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
