package google

import (
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"famsync/internal/models"
)

// Translator converts between the local event schema and the Google Calendar
// schema. Both directions are pure and deterministic; the only parameter is
// the fixed timezone policy used to resolve date/time pairs.
type Translator struct {
	Location *time.Location
}

// NewTranslator creates a translator pinned to one timezone.
func NewTranslator(loc *time.Location) *Translator {
	if loc == nil {
		loc = time.UTC
	}
	return &Translator{Location: loc}
}

// categoryRules is the ordered keyword table backing category inference.
// Order matters: the first matching rule wins, so behavior is reproducible.
var categoryRules = []struct {
	keywords []string
	category models.EventType
}{
	{[]string{"doctor", "dentist"}, models.TypeAppointment},
	{[]string{"meeting", "call"}, models.TypeMeeting},
	{[]string{"school", "class"}, models.TypeEducation},
	{[]string{"birthday", "party"}, models.TypeSocial},
	{[]string{"family", "dinner"}, models.TypeFamily},
}

// InferEventType picks a category for a title with no explicit category.
func InferEventType(title string) models.EventType {
	lowered := strings.ToLower(title)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.category
			}
		}
	}
	return models.TypeOther
}

// ToLocal maps a remote event into the local schema. The remote id becomes
// the correlation key; the local record id is left for the caller to assign.
func (t *Translator) ToLocal(remote *calendar.Event) (*models.CalendarEvent, error) {
	start, end, allDay, err := t.resolveSpan(remote)
	if err != nil {
		return nil, err
	}

	minutes := int(math.Round(end.Sub(start).Minutes()))
	if minutes < models.MinDurationMinutes {
		minutes = models.MinDurationMinutes
	}

	event := &models.CalendarEvent{
		Title:           remote.Summary,
		Date:            start.Format(models.DateLayout),
		DurationMinutes: minutes,
		Location:        remote.Location,
		Notes:           remote.Description,
		Type:            InferEventType(remote.Summary),
		Status:          toLocalStatus(remote.Status),
		RemoteEventID:   remote.Id,
		RecurrenceRule:  strings.Join(remote.Recurrence, "\n"),
		Reminders:       toLocalReminders(remote.Reminders),
	}
	if !allDay {
		event.Time = start.Format(models.TimeLayout)
	}

	for _, a := range remote.Attendees {
		event.Attendees = append(event.Attendees, a.Email)
	}

	if remote.Created != "" {
		if created, err := time.Parse(time.RFC3339, remote.Created); err == nil {
			event.CreatedAt = created
		}
	}
	if remote.Updated != "" {
		if updated, err := time.Parse(time.RFC3339, remote.Updated); err == nil {
			event.UpdatedAt = updated
		}
	}

	return event, nil
}

// resolveSpan extracts the start/end instants from either the date-only or
// the date-time form of the remote event.
func (t *Translator) resolveSpan(remote *calendar.Event) (start, end time.Time, allDay bool, err error) {
	if remote.Start == nil || remote.End == nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("remote event %s has no start or end", remote.Id)
	}

	if remote.Start.DateTime != "" {
		start, err = time.Parse(time.RFC3339, remote.Start.DateTime)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("bad start time for event %s: %w", remote.Id, err)
		}
		end, err = time.Parse(time.RFC3339, remote.End.DateTime)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("bad end time for event %s: %w", remote.Id, err)
		}
		return start.In(t.Location), end.In(t.Location), false, nil
	}

	start, err = time.ParseInLocation(models.DateLayout, remote.Start.Date, t.Location)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("bad start date for event %s: %w", remote.Id, err)
	}
	end, err = time.ParseInLocation(models.DateLayout, remote.End.Date, t.Location)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("bad end date for event %s: %w", remote.Id, err)
	}
	return start, end, true, nil
}

// ToRemote maps a local event into the Google Calendar shape. The end time
// is derived from the duration; only enabled reminders cross over.
func (t *Translator) ToRemote(local *models.CalendarEvent) (*calendar.Event, error) {
	start, err := local.StartTime(t.Location)
	if err != nil {
		return nil, fmt.Errorf("event %s has an unparseable date or time: %w", local.ID, err)
	}

	minutes := local.DurationMinutes
	if minutes < models.MinDurationMinutes {
		minutes = models.MinDurationMinutes
	}
	end := start.Add(time.Duration(minutes) * time.Minute)

	remote := &calendar.Event{
		Id:          local.RemoteEventID,
		Summary:     local.Title,
		Description: local.Notes,
		Location:    local.Location,
		Status:      toRemoteStatus(local.Status),
		Reminders:   toRemoteReminders(local.Reminders),
	}

	if local.Time == "" {
		remote.Start = &calendar.EventDateTime{Date: start.Format(models.DateLayout)}
		remote.End = &calendar.EventDateTime{Date: end.Format(models.DateLayout)}
	} else {
		remote.Start = &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: t.Location.String()}
		remote.End = &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: t.Location.String()}
	}

	if local.RecurrenceRule != "" {
		remote.Recurrence = strings.Split(local.RecurrenceRule, "\n")
	}
	for _, email := range local.Attendees {
		remote.Attendees = append(remote.Attendees, &calendar.EventAttendee{Email: email})
	}

	return remote, nil
}

func toLocalStatus(status string) models.EventStatus {
	switch status {
	case "tentative":
		return models.StatusTentative
	case "cancelled":
		return models.StatusCancelled
	default:
		return models.StatusConfirmed
	}
}

func toRemoteStatus(status models.EventStatus) string {
	if status == models.StatusConfirmed {
		return "confirmed"
	}
	return "tentative"
}

func toLocalReminders(reminders *calendar.EventReminders) []models.Reminder {
	if reminders == nil || len(reminders.Overrides) == 0 {
		// Remote events with no explicit reminders get the organizer default.
		return []models.Reminder{{Kind: "popup", OffsetMinutes: 15, Enabled: true}}
	}
	out := make([]models.Reminder, 0, len(reminders.Overrides))
	for _, o := range reminders.Overrides {
		out = append(out, models.Reminder{
			Kind:          o.Method,
			OffsetMinutes: int(o.Minutes),
			Enabled:       true,
		})
	}
	return out
}

func toRemoteReminders(reminders []models.Reminder) *calendar.EventReminders {
	out := &calendar.EventReminders{
		UseDefault:      false,
		ForceSendFields: []string{"UseDefault"},
	}
	for _, r := range reminders {
		if !r.Enabled {
			continue
		}
		out.Overrides = append(out.Overrides, &calendar.EventReminder{
			Method:  r.Kind,
			Minutes: int64(r.OffsetMinutes),
		})
	}
	return out
}
