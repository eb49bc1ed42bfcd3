// ABOUTME: Sync engine orchestrating pull and push between the local store and Google
// ABOUTME: Tracks per-record outcomes so one failure never aborts a batch
package gcal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/api/calendar/v3"

	"stallbook/db"
	"stallbook/models"
)

const (
	// pushBatchSize bounds the provider call burst of one push invocation.
	pushBatchSize = 50
	// pullMaxResults is the Google Calendar API page ceiling.
	pullMaxResults = 250
)

// Outcome tags one record's result within a sync batch.
type Outcome string

const (
	OutcomeSynced Outcome = "synced"
	OutcomeFailed Outcome = "failed"
)

// SyncResult reports what happened to a single record during pull or push.
type SyncResult struct {
	EventID string  `json:"event_id"`
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

// SyncedCount derives the scalar success count from tagged results.
func SyncedCount(results []SyncResult) int {
	count := 0
	for _, r := range results {
		if r.Outcome == OutcomeSynced {
			count++
		}
	}
	return count
}

// Engine reconciles local events with a Google calendar. The provider is
// already authenticated by the time an Engine exists: a token failure
// aborts before any engine call, which is the one non-per-record failure.
type Engine struct {
	db       *sql.DB
	provider Provider
	mapper   *Mapper
	log      *zerolog.Logger
}

func NewEngine(database *sql.DB, provider Provider, mapper *Mapper, log *zerolog.Logger) *Engine {
	return &Engine{
		db:       database,
		provider: provider,
		mapper:   mapper,
		log:      log,
	}
}

// Pull lists provider events from now forward and reconciles each into the
// local store: known google ids are overwritten in place, unknown ones are
// inserted as already-synced records. Per-record failures are tagged and
// skipped. Repeated pulls over an unchanged calendar are no-ops.
func (e *Engine) Pull(ctx context.Context, calendarID string) ([]SyncResult, error) {
	if calendarID == "" {
		calendarID = models.DefaultCalendarID
	}

	runID := e.startRun("pull")

	events, err := e.provider.ListEvents(ctx, calendarID, time.Now(), pullMaxResults)
	if err != nil {
		e.finishRun(runID, nil, err)
		return nil, err
	}

	var results []SyncResult
	for _, event := range events {
		if event == nil || event.Id == "" {
			continue
		}
		results = append(results, e.pullOne(event, calendarID))
	}

	e.finishRun(runID, results, nil)
	return results, nil
}

func (e *Engine) pullOne(event *calendar.Event, calendarID string) SyncResult {
	now := time.Now()

	mapped, err := e.mapper.ToLocalEvent(event)
	if err != nil {
		e.log.Warn().Err(err).Str("google_event_id", event.Id).Msg("skipping unmappable event")
		return SyncResult{EventID: event.Id, Outcome: OutcomeFailed, Error: err.Error()}
	}

	local, err := db.GetEventByGoogleID(e.db, event.Id)
	if err != nil {
		e.log.Warn().Err(err).Str("google_event_id", event.Id).Msg("lookup by google id failed")
		return SyncResult{EventID: event.Id, Outcome: OutcomeFailed, Error: err.Error()}
	}

	// The extension channel may name a local record the provider row was
	// pushed from before a crash lost the status write. Matching on it
	// keeps a retried create from duplicating the record locally.
	if local == nil && mapped.ID != uuid.Nil {
		local, err = db.GetEvent(e.db, mapped.ID)
		if err != nil {
			e.log.Warn().Err(err).Str("event_id", mapped.ID.String()).Msg("lookup by local id failed")
			return SyncResult{EventID: event.Id, Outcome: OutcomeFailed, Error: err.Error()}
		}
	}

	if local != nil {
		local.Title = mapped.Title
		local.Description = mapped.Description
		local.StartDate = mapped.StartDate
		local.EndDate = mapped.EndDate
		local.AllDay = mapped.AllDay
		local.Location = mapped.Location
		local.EventType = mapped.EventType
		local.EventCategory = mapped.EventCategory
		local.ExpectedAttendees = mapped.ExpectedAttendees
		local.ProductsToBring = mapped.ProductsToBring
		local.SpecialRequirements = mapped.SpecialRequirements
		local.EstimatedRevenue = mapped.EstimatedRevenue
		local.GoogleEventID = event.Id
		local.GoogleCalendarID = calendarID
		local.SyncStatus = models.SyncStatusSynced
		local.SyncError = ""
		local.LastSyncAt = &now

		if err := db.UpdateEvent(e.db, local.ID, local); err != nil {
			e.log.Warn().Err(err).Str("event_id", local.ID.String()).Msg("failed to overwrite pulled event")
			return SyncResult{EventID: local.ID.String(), Outcome: OutcomeFailed, Error: err.Error()}
		}

		return SyncResult{EventID: local.ID.String(), Outcome: OutcomeSynced}
	}

	mapped.GoogleCalendarID = calendarID
	mapped.SyncStatus = models.SyncStatusSynced
	mapped.LastSyncAt = &now
	mapped.CreatedBy = models.SyncAgentActor

	if err := db.CreateEvent(e.db, mapped); err != nil {
		e.log.Warn().Err(err).Str("google_event_id", event.Id).Msg("failed to insert pulled event")
		return SyncResult{EventID: event.Id, Outcome: OutcomeFailed, Error: err.Error()}
	}

	return SyncResult{EventID: mapped.ID.String(), Outcome: OutcomeSynced}
}

// Push sends up to pushBatchSize pending or errored events to the
// provider, update when a google id exists, insert otherwise. Outcomes are
// written back onto each record; the batch always runs to completion.
func (e *Engine) Push(ctx context.Context) ([]SyncResult, error) {
	batch, err := db.FindEventsToPush(e.db, pushBatchSize)
	if err != nil {
		return nil, fmt.Errorf("%w: select push batch: %v", ErrPersistence, err)
	}

	runID := e.startRun("push")

	var results []SyncResult
	for i := range batch {
		results = append(results, e.pushOne(ctx, &batch[i]))
	}

	e.finishRun(runID, results, nil)
	return results, nil
}

func (e *Engine) pushOne(ctx context.Context, event *models.LocalEvent) SyncResult {
	now := time.Now()
	mapped := e.mapper.ToProviderEvent(event)
	calendarID := event.GoogleCalendarID
	if calendarID == "" {
		calendarID = models.DefaultCalendarID
	}

	var newGoogleID string
	var pushErr error

	if event.GoogleEventID != "" {
		_, pushErr = e.provider.UpdateEvent(ctx, calendarID, event.GoogleEventID, mapped)
	} else {
		created, err := e.provider.InsertEvent(ctx, calendarID, mapped)
		pushErr = err
		if err == nil {
			newGoogleID = created.Id
		}
	}

	if pushErr != nil {
		e.log.Warn().Err(pushErr).Str("event_id", event.ID.String()).Msg("push failed for event")
		if err := db.MarkEventSyncError(e.db, event.ID, pushErr.Error(), now); err != nil {
			e.log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to record sync error")
		}
		return SyncResult{EventID: event.ID.String(), Outcome: OutcomeFailed, Error: pushErr.Error()}
	}

	if err := db.MarkEventSynced(e.db, event.ID, newGoogleID, now); err != nil {
		e.log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to record sync success")
		return SyncResult{EventID: event.ID.String(), Outcome: OutcomeFailed, Error: err.Error()}
	}

	return SyncResult{EventID: event.ID.String(), Outcome: OutcomeSynced}
}

func (e *Engine) startRun(direction string) string {
	runID, err := db.StartSyncRun(e.db, direction)
	if err != nil {
		e.log.Warn().Err(err).Str("direction", direction).Msg("failed to record sync run start")
		return ""
	}
	return runID
}

func (e *Engine) finishRun(runID string, results []SyncResult, runErr error) {
	if runID == "" {
		return
	}

	synced := SyncedCount(results)
	failed := len(results) - synced
	var errMsg *string
	if runErr != nil {
		s := runErr.Error()
		errMsg = &s
	}

	if err := db.FinishSyncRun(e.db, runID, synced, failed, errMsg); err != nil {
		e.log.Warn().Err(err).Str("run_id", runID).Msg("failed to record sync run finish")
	}
}
