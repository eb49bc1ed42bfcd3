// ABOUTME: OAuth flow handlers: consent URL and callback persistence
// ABOUTME: Token values never appear in responses, only a sanitized summary
package web

import (
	"errors"
	"net/http"

	"stallbook/db"
	"stallbook/gcal"
)

func (s *Server) handleAuthURL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"authUrl": s.tokens.AuthURL(),
	})
}

func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	tokenSet, err := s.tokens.Exchange(r.Context(), code)
	if err != nil {
		s.log.Error().Err(err).Msg("code exchange failed")
		if errors.Is(err, gcal.ErrAuthExchange) {
			writeError(w, http.StatusUnauthorized, "authorization code rejected")
			return
		}
		writeError(w, http.StatusInternalServerError, "token exchange failed")
		return
	}

	if err := db.SaveTokenSet(s.db, tokenSet); err != nil {
		s.log.Error().Err(err).Msg("failed to persist token set")
		writeError(w, http.StatusInternalServerError, "failed to store credentials")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "connected",
		"provider":          tokenSet.Provider,
		"token_type":        tokenSet.TokenType,
		"scope":             tokenSet.Scope,
		"expiry":            tokenSet.Expiry,
		"has_refresh_token": tokenSet.RefreshToken != "",
	})
}
