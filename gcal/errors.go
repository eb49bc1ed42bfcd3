// ABOUTME: Error taxonomy for the Google Calendar sync subsystem
// ABOUTME: Sentinel errors distinguish auth, provider, mapping, and persistence failures
package gcal

import "errors"

var (
	// ErrAuthExchange means Google rejected the authorization code
	// (expired, reused, or issued for a different redirect).
	ErrAuthExchange = errors.New("authorization code exchange rejected")

	// ErrTokenExpiredNoRefresh means the stored access token is expired
	// and no refresh token exists to renew it. No network call is made.
	ErrTokenExpiredNoRefresh = errors.New("access token expired and no refresh token available")

	// ErrRefresh means the refresh-token grant failed.
	ErrRefresh = errors.New("access token refresh failed")

	// ErrRevoke means the token revocation endpoint rejected the request.
	ErrRevoke = errors.New("token revocation failed")

	// ErrProviderRead wraps failures listing events or calendars.
	ErrProviderRead = errors.New("provider read failed")

	// ErrProviderWrite wraps failures inserting, updating, or deleting
	// provider events.
	ErrProviderWrite = errors.New("provider write failed")

	// ErrMapping means a provider event carried malformed extension data.
	ErrMapping = errors.New("event mapping failed")

	// ErrPersistence wraps local store failures during a sync operation.
	ErrPersistence = errors.New("local persistence failed")
)
