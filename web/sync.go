// ABOUTME: Sync and calendar-list handlers
// ABOUTME: Token acquisition is the hard precondition; batches report tagged results
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"stallbook/db"
	"stallbook/gcal"
)

type syncFromGoogleRequest struct {
	CalendarID string `json:"calendarId"`
}

// authenticatedProvider loads the stored token set and builds a provider
// client. Any failure here aborts the whole sync call; no partial batch
// proceeds without a valid client. A refreshed access token is persisted
// before returning.
func (s *Server) authenticatedProvider(r *http.Request) (gcal.Provider, error) {
	tokenSet, err := db.GetTokenSet(s.db, db.GoogleProvider)
	if err != nil {
		return nil, err
	}
	if tokenSet == nil {
		return nil, gcal.ErrTokenExpiredNoRefresh
	}

	service, effective, err := s.tokens.Service(r.Context(), tokenSet)
	if err != nil {
		return nil, err
	}

	if effective.AccessToken != tokenSet.AccessToken {
		if err := db.UpdateAccessToken(s.db, db.GoogleProvider, effective.AccessToken, effective.Expiry); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist refreshed access token")
		}
	}

	return s.newProvider(service), nil
}

func (s *Server) handleSyncFromGoogle(w http.ResponseWriter, r *http.Request) {
	var req syncFromGoogleRequest
	if r.Body != nil {
		// An empty body means the primary calendar.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	provider, err := s.authenticatedProvider(r)
	if err != nil {
		s.respondAuthFailure(w, err)
		return
	}

	engine := gcal.NewEngine(s.db, provider, s.mapper, s.log)
	results, err := engine.Pull(r.Context(), req.CalendarID)
	if err != nil {
		s.log.Error().Err(err).Msg("pull failed")
		writeError(w, http.StatusBadGateway, "failed to pull events from Google")
		return
	}

	if results == nil {
		results = []gcal.SyncResult{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"syncedCount": gcal.SyncedCount(results),
		"results":     results,
	})
}

func (s *Server) handleSyncToGoogle(w http.ResponseWriter, r *http.Request) {
	provider, err := s.authenticatedProvider(r)
	if err != nil {
		s.respondAuthFailure(w, err)
		return
	}

	engine := gcal.NewEngine(s.db, provider, s.mapper, s.log)
	results, err := engine.Push(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("push failed")
		writeError(w, http.StatusInternalServerError, "failed to push events to Google")
		return
	}

	if results == nil {
		results = []gcal.SyncResult{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"syncedCount": gcal.SyncedCount(results),
		"results":     results,
	})
}

func (s *Server) handleListCalendars(w http.ResponseWriter, r *http.Request) {
	provider, err := s.authenticatedProvider(r)
	if err != nil {
		s.respondAuthFailure(w, err)
		return
	}

	calendars, err := provider.ListCalendars(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("calendar list failed")
		writeError(w, http.StatusBadGateway, "failed to list calendars")
		return
	}

	type calendarSummary struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
		Primary bool   `json:"primary"`
	}

	summaries := make([]calendarSummary, 0, len(calendars))
	for _, c := range calendars {
		summaries = append(summaries, calendarSummary{
			ID:      c.Id,
			Summary: c.Summary,
			Primary: c.Primary,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"calendars": summaries})
}

func (s *Server) handleSyncRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := db.RecentSyncRuns(s.db, 20)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load sync runs")
		writeError(w, http.StatusInternalServerError, "failed to load sync runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) respondAuthFailure(w http.ResponseWriter, err error) {
	s.log.Warn().Err(err).Msg("could not obtain authenticated client")
	switch {
	case errors.Is(err, gcal.ErrTokenExpiredNoRefresh):
		writeError(w, http.StatusUnauthorized, "Google Calendar is not connected or the session expired; re-authorize via /auth")
	case errors.Is(err, gcal.ErrRefresh):
		writeError(w, http.StatusUnauthorized, "token refresh was rejected; re-authorize via /auth")
	default:
		writeError(w, http.StatusInternalServerError, "failed to prepare Google client")
	}
}
