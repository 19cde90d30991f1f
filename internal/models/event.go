package models

import "time"

// Layouts for the calendar-date and time-of-day fields of CalendarEvent.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// MinDurationMinutes is the floor every event duration is clamped to.
const MinDurationMinutes = 15

// EventType is the closed category set for local events. When an imported
// event carries no explicit category, one is inferred from its title.
type EventType string

const (
	TypeAppointment EventType = "appointment"
	TypeMeeting     EventType = "meeting"
	TypeEducation   EventType = "education"
	TypeSocial      EventType = "social"
	TypeFamily      EventType = "family"
	TypeOther       EventType = "other"
)

// EventStatus mirrors the remote status vocabulary.
type EventStatus string

const (
	StatusConfirmed EventStatus = "confirmed"
	StatusTentative EventStatus = "tentative"
	StatusCancelled EventStatus = "cancelled"
)

// Reminder is a single notification attached to an event.
type Reminder struct {
	Kind          string `json:"kind"`          // Delivery method, e.g. "popup" or "email"
	OffsetMinutes int    `json:"offsetMinutes"` // Minutes before the event start
	Enabled       bool   `json:"enabled"`
}

// CalendarEvent is the locally owned event record. It is the engine's input
// and output shape; persistence belongs to the caller.
type CalendarEvent struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Date            string      `json:"date"` // Calendar date, DateLayout
	Time            string      `json:"time"` // Local time-of-day, TimeLayout; empty for all-day events
	DurationMinutes int         `json:"durationMinutes"`
	Location        string      `json:"location,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	Type            EventType   `json:"type"`
	Cost            float64     `json:"cost"`
	RecurrenceRule  string      `json:"recurrenceRule,omitempty"`
	Priority        string      `json:"priority,omitempty"`
	Status          EventStatus `json:"status"`
	RemoteEventID   string      `json:"remoteEventId,omitempty"` // Correlation key; set once at first export or import
	Reminders       []Reminder  `json:"reminders,omitempty"`
	Attendees       []string    `json:"attendees,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// IsLocalOnly reports whether the event has never been correlated with a
// remote counterpart.
func (e *CalendarEvent) IsLocalOnly() bool {
	return e.RemoteEventID == ""
}

// StartTime resolves the Date/Time pair into an instant in the given
// location. All-day events resolve to midnight.
func (e *CalendarEvent) StartTime(loc *time.Location) (time.Time, error) {
	if e.Time == "" {
		return time.ParseInLocation(DateLayout, e.Date, loc)
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, e.Date+" "+e.Time, loc)
}

// CalendarInfo describes one remote calendar available to the account.
type CalendarInfo struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Primary  bool   `json:"primary"`
	TimeZone string `json:"timeZone,omitempty"`
}
