// ABOUTME: OAuth token lifecycle for the Google Calendar integration
// ABOUTME: Handles consent URL, code exchange, refresh, and authenticated client construction
package gcal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"stallbook/models"
)

const (
	defaultRedirectURL = "http://localhost:8080/auth/callback"
	googleRevokeURL    = "https://oauth2.googleapis.com/revoke"
)

// NewOAuthConfig creates the OAuth2 config for the Calendar API.
// Credentials come from the environment; users create their own OAuth app
// in Google Cloud Console.
func NewOAuthConfig() *oauth2.Config {
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")
	if redirectURL == "" {
		redirectURL = defaultRedirectURL
	}

	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  redirectURL,
		Scopes: []string{
			calendar.CalendarScope,
			calendar.CalendarEventsScope,
			calendar.CalendarReadonlyScope,
		},
		Endpoint: google.Endpoint,
	}
}

// TokenManager owns the OAuth credential lifecycle. It holds no token
// state itself; callers pass the stored TokenSet into Service on every
// invocation, and nothing is memoized across calls.
type TokenManager struct {
	config     *oauth2.Config
	revokeURL  string
	httpClient *http.Client
}

func NewTokenManager() *TokenManager {
	return &TokenManager{
		config:     NewOAuthConfig(),
		revokeURL:  googleRevokeURL,
		httpClient: http.DefaultClient,
	}
}

// AuthURL returns the consent URL. Offline access plus forced approval
// makes Google reliably issue a refresh token even on re-consent.
func (m *TokenManager) AuthURL() string {
	return m.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token set.
func (m *TokenManager) Exchange(ctx context.Context, code string) (*models.TokenSet, error) {
	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthExchange, err)
	}

	scope, _ := token.Extra("scope").(string)

	return &models.TokenSet{
		Provider:     "google",
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Scope:        scope,
		Expiry:       token.Expiry,
	}, nil
}

// Refresh obtains a new access token from a refresh token. The refresh
// token itself is not rotated in this flow.
func (m *TokenManager) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	source := m.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrRefresh, err)
	}

	return token.AccessToken, token.Expiry, nil
}

// Service builds an authenticated Calendar service from a stored token
// set. An expired token with a refresh token triggers exactly one refresh;
// an expired token without one fails before any network call. The returned
// TokenSet is the effective credential (refreshed when a refresh happened)
// so callers can persist the new access token.
func (m *TokenManager) Service(ctx context.Context, tokenSet *models.TokenSet) (*calendar.Service, *models.TokenSet, error) {
	if tokenSet == nil {
		return nil, nil, fmt.Errorf("token set cannot be nil")
	}

	effective := *tokenSet

	if !tokenSet.Expiry.IsZero() && tokenSet.Expiry.Before(time.Now()) {
		if tokenSet.RefreshToken == "" {
			return nil, nil, ErrTokenExpiredNoRefresh
		}

		accessToken, expiry, err := m.Refresh(ctx, tokenSet.RefreshToken)
		if err != nil {
			return nil, nil, err
		}

		effective.AccessToken = accessToken
		effective.Expiry = expiry
	}

	token := &oauth2.Token{
		AccessToken:  effective.AccessToken,
		RefreshToken: effective.RefreshToken,
		TokenType:    effective.TokenType,
		Expiry:       effective.Expiry,
	}

	// Static source: the refresh decision above is the only refresh this
	// call may perform.
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return service, &effective, nil
}

// Revoke invalidates a token at Google's revocation endpoint.
func (m *TokenManager) Revoke(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.revokeURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRevoke, err)
	}
	req.URL.RawQuery = url.Values{"token": {token}}.Encode()
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRevoke, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrRevoke, resp.StatusCode)
	}

	return nil
}
