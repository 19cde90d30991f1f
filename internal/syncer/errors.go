package syncer

import "errors"

var (
	// ErrSyncInFlight is returned when Sync is called for an account whose
	// previous Sync has not finished. Concurrent cycles would race on
	// remote-event-id assignments, so they are rejected, not interleaved.
	ErrSyncInFlight = errors.New("a sync is already in progress for this account")

	// ErrSyncDisabled is returned when the settings have sync turned off.
	ErrSyncDisabled = errors.New("sync is disabled in settings")
)
