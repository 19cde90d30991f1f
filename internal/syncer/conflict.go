package syncer

import "famsync/internal/models"

// Classify compares a paired local event with its remote counterpart, which
// has already been translated into the local shape. A nil remote means the
// fetch did not return the correlated event. Checks run in priority order;
// an event reports at most one conflict even when several fields differ.
func Classify(local, remote *models.CalendarEvent) models.ConflictType {
	if remote == nil {
		if local.RemoteEventID != "" {
			return models.ConflictDeletion
		}
		return models.ConflictNone
	}

	if local.Date != remote.Date || local.Time != remote.Time || local.DurationMinutes != remote.DurationMinutes {
		return models.ConflictTime
	}
	if local.Title != remote.Title || local.Location != remote.Location || local.Notes != remote.Notes {
		return models.ConflictContent
	}
	return models.ConflictNone
}

// Resolve picks the winning side of a time or content conflict: the most
// recently updated record wins. Ties favor the remote side, whose timestamp
// is server-assigned and therefore the fresher authority. Deletion conflicts
// are never passed here; they are reported without any automatic action.
func Resolve(local, remote *models.CalendarEvent) models.Winner {
	if local.UpdatedAt.After(remote.UpdatedAt) {
		return models.WinnerLocal
	}
	return models.WinnerRemote
}

// applyRemoteValues copies the remote side's comparable fields onto the
// losing local record, including the remote update stamp so a follow-up
// cycle sees the pair as converged.
func applyRemoteValues(local, remote *models.CalendarEvent) {
	local.Title = remote.Title
	local.Date = remote.Date
	local.Time = remote.Time
	local.DurationMinutes = remote.DurationMinutes
	local.Location = remote.Location
	local.Notes = remote.Notes
	local.Status = remote.Status
	local.UpdatedAt = remote.UpdatedAt
}
