// ABOUTME: Event CRUD and merged agenda handlers
// ABOUTME: Guards virtual order_ entries against any mutation
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"stallbook/agenda"
	"stallbook/db"
	"stallbook/models"
)

// ErrVirtualEventImmutable rejects any mutation of an order_ projection.
var ErrVirtualEventImmutable = errors.New("virtual delivery events are read-only")

// eventRequest is the create/update payload. Title, start date, and event
// type are mandatory on create.
type eventRequest struct {
	Title               string     `json:"title" validate:"required"`
	Description         string     `json:"description"`
	StartDate           *time.Time `json:"start_date" validate:"required"`
	EndDate             *time.Time `json:"end_date"`
	AllDay              bool       `json:"all_day"`
	Location            string     `json:"location"`
	Address             string     `json:"address"`
	EventType           string     `json:"event_type" validate:"required,oneof=fair generic-event appointment delivery meeting"`
	EventCategory       string     `json:"event_category"`
	ExpectedAttendees   int        `json:"expected_attendees" validate:"gte=0"`
	ProductsToBring     []string   `json:"products_to_bring"`
	SpecialRequirements string     `json:"special_requirements"`
	EstimatedRevenue    float64    `json:"estimated_revenue" validate:"gte=0"`
	GoogleCalendarID    string     `json:"google_calendar_id"`
	SyncStatus          string     `json:"sync_status" validate:"omitempty,oneof=not_synced pending"`
	CreatedBy           string     `json:"created_by"`
	AssignedTo          string     `json:"assigned_to"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	s.respondAgenda(w, agenda.ModeAll)
}

func (s *Server) handleUpcomingEvents(w http.ResponseWriter, r *http.Request) {
	s.respondAgenda(w, agenda.ModeUpcoming)
}

func (s *Server) respondAgenda(w http.ResponseWriter, mode agenda.Mode) {
	events, err := s.projector.Events(mode)
	if err != nil {
		s.log.Error().Err(err).Str("mode", string(mode)).Msg("agenda projection failed")
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	if events == nil {
		events = []models.AgendaEvent{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	rawID := mux.Vars(r)["id"]
	if models.IsVirtualID(rawID) {
		// Virtual entries exist only inside the merged view.
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	event, err := db.GetEvent(s.db, id)
	if err != nil {
		s.log.Error().Err(err).Str("event_id", rawID).Msg("failed to load event")
		writeError(w, http.StatusInternalServerError, "failed to load event")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event := eventFromRequest(&req)
	event.CreatedBy = req.CreatedBy
	if req.SyncStatus != "" {
		// not_synced is reachable only through this explicit form value;
		// the sync engine never writes it.
		event.SyncStatus = models.SyncStatus(req.SyncStatus)
	} else {
		event.SyncStatus = models.SyncStatusPending
	}

	if err := db.CreateEvent(s.db, event); err != nil {
		s.log.Error().Err(err).Msg("failed to create event")
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	rawID := mux.Vars(r)["id"]
	if models.IsVirtualID(rawID) {
		writeError(w, http.StatusConflict, ErrVirtualEventImmutable.Error())
		return
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	existing, err := db.GetEvent(s.db, id)
	if err != nil {
		s.log.Error().Err(err).Str("event_id", rawID).Msg("failed to load event")
		writeError(w, http.StatusInternalServerError, "failed to load event")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated := eventFromRequest(&req)
	updated.ID = existing.ID
	updated.GoogleEventID = existing.GoogleEventID
	if updated.GoogleCalendarID == "" {
		updated.GoogleCalendarID = existing.GoogleCalendarID
	}
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	updated.LastSyncAt = existing.LastSyncAt
	// A user edit always re-queues the record for push.
	updated.SyncStatus = models.SyncStatusPending
	updated.SyncError = ""

	if err := db.UpdateEvent(s.db, id, updated); err != nil {
		s.log.Error().Err(err).Str("event_id", rawID).Msg("failed to update event")
		writeError(w, http.StatusInternalServerError, "failed to update event")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	rawID := mux.Vars(r)["id"]
	if models.IsVirtualID(rawID) {
		writeError(w, http.StatusConflict, ErrVirtualEventImmutable.Error())
		return
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	event, err := db.GetEvent(s.db, id)
	if err != nil {
		s.log.Error().Err(err).Str("event_id", rawID).Msg("failed to load event")
		writeError(w, http.StatusInternalServerError, "failed to load event")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	// Best effort: remove the provider counterpart first, but a provider
	// failure never blocks the local delete.
	if event.GoogleEventID != "" {
		if provider, perr := s.authenticatedProvider(r); perr != nil {
			s.log.Warn().Err(perr).Str("event_id", rawID).Msg("skipping provider delete, no authenticated client")
		} else if derr := provider.DeleteEvent(r.Context(), event.GoogleCalendarID, event.GoogleEventID); derr != nil {
			s.log.Warn().Err(derr).Str("event_id", rawID).Msg("provider delete failed")
		}
	}

	if err := db.DeleteEvent(s.db, id); err != nil {
		s.log.Error().Err(err).Str("event_id", rawID).Msg("failed to delete event")
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func eventFromRequest(req *eventRequest) *models.LocalEvent {
	var start time.Time
	if req.StartDate != nil {
		start = *req.StartDate
	}

	return &models.LocalEvent{
		Title:               req.Title,
		Description:         req.Description,
		StartDate:           start,
		EndDate:             req.EndDate,
		AllDay:              req.AllDay,
		Location:            req.Location,
		Address:             req.Address,
		EventType:           models.EventType(req.EventType),
		EventCategory:       req.EventCategory,
		ExpectedAttendees:   req.ExpectedAttendees,
		ProductsToBring:     req.ProductsToBring,
		SpecialRequirements: req.SpecialRequirements,
		EstimatedRevenue:    req.EstimatedRevenue,
		GoogleCalendarID:    req.GoogleCalendarID,
		AssignedTo:          req.AssignedTo,
	}
}
