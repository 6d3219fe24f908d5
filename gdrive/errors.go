package gdrive

import "errors"

// Error kinds surfaced by the Drive export path. Everything here is
// shown to the user as a display string; only ErrAuthExpired triggers
// an automatic (single) retry.
var (
	// ErrAuthUnavailable means the credential flow could not run at
	// all (no identity backend, misconfigured client).
	ErrAuthUnavailable = errors.New("authentication is not available")

	// ErrAuthDenied means the flow ran but produced no token (user
	// cancelled, consent refused, missing capability).
	ErrAuthDenied = errors.New("authentication was denied")

	// ErrAuthExpired means the server rejected the bearer token. The
	// local copy has already been dropped when this is returned.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrUploadFailed covers every non-auth upload failure.
	ErrUploadFailed = errors.New("upload failed")

	// ErrCacheError means the local credential cache could not be
	// mutated during sign-out.
	ErrCacheError = errors.New("credential cache error")
)
