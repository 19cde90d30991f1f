package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"

	"famsync/internal/google"
	"famsync/internal/models"
)

// Fetch window for remote events, relative to the start of the cycle.
const (
	fetchWindowPast   = 30 * 24 * time.Hour
	fetchWindowFuture = 90 * 24 * time.Hour
)

// RemoteCalendar is the remote API surface the engine depends on. The
// production implementation is google.CalendarClient.
type RemoteCalendar interface {
	ListCalendars(ctx context.Context) ([]models.CalendarInfo, error)
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*calendar.Event, error)
	CreateEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// TokenManager is the credential surface the engine depends on. The
// production implementation is google.TokenManager.
type TokenManager interface {
	EnsureValid(ctx context.Context) (string, error)
	IsAuthenticated() bool
	Revoke(ctx context.Context) error
}

// Engine orchestrates one account's synchronization between the local event
// collection and the remote calendars. It mutates the caller's records in
// place (stamping correlation ids, applying winning remote values) and
// returns newly imported records for the caller to persist; it owns no
// storage of its own.
type Engine struct {
	logger     *slog.Logger
	tokens     TokenManager
	remote     RemoteCalendar
	translator *google.Translator
	now        func() time.Time

	mu      sync.Mutex
	running bool
}

// NewEngine creates an engine for one account.
func NewEngine(logger *slog.Logger, tokens TokenManager, remote RemoteCalendar, translator *google.Translator) *Engine {
	return &Engine{
		logger:     logger,
		tokens:     tokens,
		remote:     remote,
		translator: translator,
		now:        time.Now,
	}
}

// tryBegin rejects a Sync while another is in flight for this account.
func (e *Engine) tryBegin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return false
	}
	e.running = true
	return true
}

func (e *Engine) end() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

// Sync runs one full cycle: authenticate, fetch, reconcile paired events,
// import remote-only events, export local-only events, finalize. Only the
// authentication phase may fail the call outright; every later failure is
// isolated to its event and recorded in the result's error list. A lost
// authorization mid-cycle terminates the remaining phases early but still
// returns everything accumulated so far.
func (e *Engine) Sync(ctx context.Context, settings *models.SyncSettings, localEvents []*models.CalendarEvent) (*models.SyncResult, error) {
	if !settings.Enabled {
		return nil, ErrSyncDisabled
	}
	if !e.tryBegin() {
		return nil, ErrSyncInFlight
	}
	defer e.end()

	result := &models.SyncResult{
		Errors:    []string{},
		Conflicts: []models.Conflict{},
	}

	e.logger.Info("Starting sync cycle.", "direction", settings.Direction, "calendars", len(settings.SelectedCalendarIDs))

	// Phase 1: authenticate.
	if _, err := e.tokens.EnsureValid(ctx); err != nil {
		return nil, fmt.Errorf("sync aborted: %w", err)
	}

	now := e.now()
	wantsImport := settings.Direction == models.DirectionImport || settings.Direction == models.DirectionBoth
	wantsExport := settings.Direction == models.DirectionExport || settings.Direction == models.DirectionBoth

	// Phase 2: fetch remote events across the selected calendars.
	remoteEvents, remoteCalendarOf, fetchComplete, ok := e.fetchRemote(ctx, settings, now, result)
	if !ok {
		return finish(result), nil
	}

	remoteByID := make(map[string]*calendar.Event, len(remoteEvents))
	for _, ev := range remoteEvents {
		remoteByID[ev.Id] = ev
	}
	correlated := make(map[string]bool)
	for _, local := range localEvents {
		if local.RemoteEventID != "" {
			correlated[local.RemoteEventID] = true
		}
	}

	// Phase 3: reconcile paired events.
	if settings.Direction == models.DirectionBoth {
		if !e.reconcile(ctx, localEvents, remoteByID, remoteCalendarOf, fetchComplete, result) {
			return finish(result), nil
		}
	}

	// Phase 4: import remote-only events.
	if wantsImport {
		if !e.importRemoteOnly(ctx, remoteEvents, correlated, now, result) {
			return finish(result), nil
		}
	}

	// Phase 5: export local-only events.
	if wantsExport && len(settings.SelectedCalendarIDs) > 0 {
		if !e.exportLocalOnly(ctx, settings.SelectedCalendarIDs[0], localEvents, result) {
			return finish(result), nil
		}
	}

	// Phase 6: finalize.
	completedAt := e.now()
	settings.LastSyncAt = &completedAt
	finish(result)

	e.logger.Info("Sync cycle finished.",
		"imported", result.ImportedCount,
		"exported", result.ExportedCount,
		"updated", result.UpdatedCount,
		"conflicts", len(result.Conflicts),
		"errors", len(result.Errors))
	return result, nil
}

// finish derives the success flag; partial success is a normal outcome and
// is distinguishable from total failure by the counts.
func finish(result *models.SyncResult) *models.SyncResult {
	result.Success = len(result.Errors) == 0
	return result
}

// abortReauth records a mid-cycle authorization loss. Remaining phases are
// skipped; whatever was accumulated still goes back to the caller.
func (e *Engine) abortReauth(result *models.SyncResult, phase string) {
	e.logger.Warn("Authorization lost mid-sync, terminating early.", "phase", phase)
	result.Errors = append(result.Errors, fmt.Sprintf("%s: authorization lost, reauthorization required", phase))
}

// fetchRemote lists events for every selected calendar over the fixed
// [-30d, +90d) window. complete is false when any calendar failed to list,
// so a missing counterpart cannot be taken as a remote deletion this cycle.
// The last bool result is false when the cycle must stop.
func (e *Engine) fetchRemote(ctx context.Context, settings *models.SyncSettings, now time.Time, result *models.SyncResult) (events []*calendar.Event, calendarOf map[string]string, complete, ok bool) {
	calendarOf = make(map[string]string)
	complete = true

	if settings.Direction == models.DirectionExport {
		return events, calendarOf, complete, true
	}

	timeMin := now.Add(-fetchWindowPast)
	timeMax := now.Add(fetchWindowFuture)

	for _, calID := range settings.SelectedCalendarIDs {
		if ctx.Err() != nil {
			return events, calendarOf, complete, false
		}
		fetched, err := e.remote.ListEvents(ctx, calID, timeMin, timeMax)
		if err != nil {
			if errors.Is(err, google.ErrUnauthorized) {
				e.abortReauth(result, "fetch")
				return events, calendarOf, complete, false
			}
			result.Errors = append(result.Errors, fmt.Sprintf("fetch calendar %s: %v", calID, err))
			complete = false
			continue
		}
		for _, ev := range fetched {
			events = append(events, ev)
			calendarOf[ev.Id] = calID
		}
	}
	return events, calendarOf, complete, true
}

// reconcile classifies and resolves every paired event. Deletion conflicts
// are reported but never auto-applied, and never reported at all on a cycle
// where some calendar failed to list: an absent counterpart may simply be
// unfetched. Returns false when the cycle must stop early.
func (e *Engine) reconcile(ctx context.Context, localEvents []*models.CalendarEvent, remoteByID map[string]*calendar.Event, remoteCalendarOf map[string]string, fetchComplete bool, result *models.SyncResult) bool {
	for _, local := range localEvents {
		if local.RemoteEventID == "" {
			continue
		}
		if ctx.Err() != nil {
			return false
		}

		var translated *models.CalendarEvent
		if remote, found := remoteByID[local.RemoteEventID]; found {
			var err error
			translated, err = e.translator.ToLocal(remote)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("translate remote event %s: %v", local.RemoteEventID, err))
				continue
			}
		} else if !fetchComplete {
			continue
		}

		conflictType := Classify(local, translated)
		if conflictType == models.ConflictNone {
			continue
		}
		result.Conflicts = append(result.Conflicts, models.Conflict{
			Local:  local,
			Remote: translated,
			Type:   conflictType,
		})

		if conflictType == models.ConflictDeletion {
			// No destructive action without operator confirmation.
			e.logger.Warn("Remote counterpart missing for correlated event.", "title", local.Title, "remoteEventID", local.RemoteEventID)
			continue
		}

		switch Resolve(local, translated) {
		case models.WinnerLocal:
			payload, err := e.translator.ToRemote(local)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("translate event %q: %v", local.Title, err))
				continue
			}
			calID := remoteCalendarOf[local.RemoteEventID]
			if _, err := e.remote.UpdateEvent(ctx, calID, local.RemoteEventID, payload); err != nil {
				if errors.Is(err, google.ErrUnauthorized) {
					e.abortReauth(result, "reconcile")
					return false
				}
				result.Errors = append(result.Errors, fmt.Sprintf("update remote event %q: %v", local.Title, err))
				continue
			}
			result.UpdatedCount++
		case models.WinnerRemote:
			applyRemoteValues(local, translated)
			result.UpdatedCount++
		}
	}
	return true
}

// importRemoteOnly translates remote events with no local correlation into
// new local records and hands them back for persistence.
func (e *Engine) importRemoteOnly(ctx context.Context, remoteEvents []*calendar.Event, correlated map[string]bool, now time.Time, result *models.SyncResult) bool {
	for _, remote := range remoteEvents {
		if correlated[remote.Id] {
			continue
		}
		if ctx.Err() != nil {
			return false
		}

		translated, err := e.translator.ToLocal(remote)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("import remote event %s: %v", remote.Id, err))
			continue
		}
		translated.ID = uuid.New().String()
		if translated.CreatedAt.IsZero() {
			translated.CreatedAt = now
		}
		if translated.UpdatedAt.IsZero() {
			translated.UpdatedAt = now
		}

		result.Imported = append(result.Imported, translated)
		result.ImportedCount++
	}
	return true
}

// exportLocalOnly creates remote copies of local events that have never been
// exported. The stamped RemoteEventID is the idempotence guard: re-running
// after a partial failure never duplicates an already-exported event.
func (e *Engine) exportLocalOnly(ctx context.Context, calendarID string, localEvents []*models.CalendarEvent, result *models.SyncResult) bool {
	for _, local := range localEvents {
		if local.RemoteEventID != "" {
			continue
		}
		if ctx.Err() != nil {
			return false
		}

		payload, err := e.translator.ToRemote(local)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("translate event %q: %v", local.Title, err))
			continue
		}
		created, err := e.remote.CreateEvent(ctx, calendarID, payload)
		if err != nil {
			if errors.Is(err, google.ErrUnauthorized) {
				e.abortReauth(result, "export")
				return false
			}
			result.Errors = append(result.Errors, fmt.Sprintf("export event %q: %v", local.Title, err))
			continue
		}
		local.RemoteEventID = created.Id
		result.ExportedCount++
	}
	return true
}

// ExportSingleEvent pushes one event to the given calendar and returns its
// remote id. Already-exported events return their existing id unchanged.
func (e *Engine) ExportSingleEvent(ctx context.Context, calendarID string, event *models.CalendarEvent) (string, error) {
	if _, err := e.tokens.EnsureValid(ctx); err != nil {
		return "", err
	}
	if event.RemoteEventID != "" {
		return event.RemoteEventID, nil
	}

	payload, err := e.translator.ToRemote(event)
	if err != nil {
		return "", err
	}
	created, err := e.remote.CreateEvent(ctx, calendarID, payload)
	if err != nil {
		return "", err
	}
	event.RemoteEventID = created.Id
	return created.Id, nil
}

// GetCalendarList returns the calendars visible to the account.
func (e *Engine) GetCalendarList(ctx context.Context) ([]models.CalendarInfo, error) {
	if _, err := e.tokens.EnsureValid(ctx); err != nil {
		return nil, err
	}
	return e.remote.ListCalendars(ctx)
}

// IsAuthenticated reports whether the account holds a usable credential.
func (e *Engine) IsAuthenticated() bool {
	return e.tokens.IsAuthenticated()
}

// Disconnect revokes and clears the account's credentials.
func (e *Engine) Disconnect(ctx context.Context) error {
	return e.tokens.Revoke(ctx)
}
