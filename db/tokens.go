// ABOUTME: Database operations for persisted OAuth tokens
// ABOUTME: Upserts and loads the single provider-keyed credential row
package db

import (
	"database/sql"
	"fmt"
	"time"

	"stallbook/models"
)

// GoogleProvider keys the one credential row this design keeps.
const GoogleProvider = "google"

// SaveTokenSet upserts the credential row for a provider. The OAuth
// callback creates it; refresh rewrites access_token and expiry in place.
func SaveTokenSet(db *sql.DB, token *models.TokenSet) error {
	if token.Provider == "" {
		token.Provider = GoogleProvider
	}

	_, err := db.Exec(`
		INSERT INTO oauth_tokens (provider, access_token, refresh_token, token_type, scope, expiry, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = CASE WHEN excluded.refresh_token != '' THEN excluded.refresh_token ELSE oauth_tokens.refresh_token END,
			token_type = excluded.token_type,
			scope = excluded.scope,
			expiry = excluded.expiry,
			updated_at = CURRENT_TIMESTAMP
	`, token.Provider, token.AccessToken, token.RefreshToken, token.TokenType, token.Scope, token.Expiry)

	if err != nil {
		return fmt.Errorf("failed to save token set: %w", err)
	}

	return nil
}

// GetTokenSet loads the credential row for a provider, nil if absent.
func GetTokenSet(db *sql.DB, provider string) (*models.TokenSet, error) {
	token := &models.TokenSet{}
	var refreshToken, tokenType, scope sql.NullString
	var expiry sql.NullTime

	err := db.QueryRow(`
		SELECT provider, access_token, refresh_token, token_type, scope, expiry, created_at, updated_at
		FROM oauth_tokens
		WHERE provider = ?
	`, provider).Scan(
		&token.Provider,
		&token.AccessToken,
		&refreshToken,
		&tokenType,
		&scope,
		&expiry,
		&token.CreatedAt,
		&token.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token set: %w", err)
	}

	token.RefreshToken = refreshToken.String
	token.TokenType = tokenType.String
	token.Scope = scope.String
	if expiry.Valid {
		token.Expiry = expiry.Time
	}

	return token, nil
}

// DeleteTokenSet removes the credential row after an explicit revoke.
func DeleteTokenSet(db *sql.DB, provider string) error {
	_, err := db.Exec(`DELETE FROM oauth_tokens WHERE provider = ?`, provider)
	if err != nil {
		return fmt.Errorf("failed to delete token set: %w", err)
	}
	return nil
}

// UpdateAccessToken rewrites only the access token and expiry after a
// refresh; the refresh token itself is not rotated.
func UpdateAccessToken(db *sql.DB, provider, accessToken string, expiry time.Time) error {
	_, err := db.Exec(`
		UPDATE oauth_tokens
		SET access_token = ?, expiry = ?, updated_at = CURRENT_TIMESTAMP
		WHERE provider = ?
	`, accessToken, expiry, provider)
	if err != nil {
		return fmt.Errorf("failed to update access token: %w", err)
	}
	return nil
}
