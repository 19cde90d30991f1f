package models

import "time"

// SyncDirection controls which sides of the sync are allowed to change.
type SyncDirection string

const (
	DirectionImport SyncDirection = "import"
	DirectionExport SyncDirection = "export"
	DirectionBoth   SyncDirection = "both"
)

// SyncSettings is the per-account sync configuration. It is owned and
// persisted by the caller; the engine only reads it and stamps LastSyncAt.
type SyncSettings struct {
	Enabled             bool          `json:"enabled"`
	SelectedCalendarIDs []string      `json:"selectedCalendarIds"`
	Direction           SyncDirection `json:"syncDirection"`
	AutoSync            bool          `json:"autoSync"`
	SyncIntervalMinutes int           `json:"syncIntervalMinutes"`
	LastSyncAt          *time.Time    `json:"lastSyncAt,omitempty"`
}

// ConflictType classifies a mismatch between a paired local and remote event.
type ConflictType string

const (
	ConflictNone     ConflictType = "none"
	ConflictDeletion ConflictType = "deletion_conflict"
	ConflictTime     ConflictType = "time_mismatch"
	ConflictContent  ConflictType = "content_mismatch"
)

// Winner names the side whose values survive a resolved conflict.
type Winner string

const (
	WinnerLocal  Winner = "local"
	WinnerRemote Winner = "remote"
)

// Conflict records one detected mismatch. Remote is the counterpart already
// translated into the local shape; nil means the remote side was deleted.
type Conflict struct {
	Local  *CalendarEvent `json:"localEvent"`
	Remote *CalendarEvent `json:"remoteEvent,omitempty"`
	Type   ConflictType   `json:"conflictType"`
}

// SyncResult is the outcome of one sync cycle. Imported holds translated
// remote-only records for the caller to persist; the engine stores nothing.
type SyncResult struct {
	Success       bool             `json:"success"`
	ImportedCount int              `json:"importedCount"`
	ExportedCount int              `json:"exportedCount"`
	UpdatedCount  int              `json:"updatedCount"`
	Errors        []string         `json:"errors"`
	Conflicts     []Conflict       `json:"conflicts"`
	Imported      []*CalendarEvent `json:"-"`
}
