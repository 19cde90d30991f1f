// Package ical renders the local event collection as an iCalendar document,
// so a family's schedule can be shared with people who are not users.
package ical

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"famsync/internal/models"
)

// WriteEvents encodes the collection as a single VCALENDAR stream.
func WriteEvents(w io.Writer, events []*models.CalendarEvent, loc *time.Location) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//famsync//EN")

	for _, event := range events {
		vevent, err := toVEvent(event, loc)
		if err != nil {
			return fmt.Errorf("failed to encode event %q: %w", event.Title, err)
		}
		cal.Children = append(cal.Children, vevent)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// toVEvent converts one local event into a VEVENT component.
func toVEvent(event *models.CalendarEvent, loc *time.Location) (*ical.Component, error) {
	start, err := event.StartTime(loc)
	if err != nil {
		return nil, err
	}
	minutes := event.DurationMinutes
	if minutes < models.MinDurationMinutes {
		minutes = models.MinDurationMinutes
	}
	end := start.Add(time.Duration(minutes) * time.Minute)

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, eventUID(event))
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, end)

	if event.Notes != "" {
		ve.Props.SetText(ical.PropDescription, event.Notes)
	}
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}
	for _, attendee := range event.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		p.SetText(fmt.Sprintf("mailto:%s", attendee))
		ve.Props.Add(p)
	}
	return ve, nil
}

// eventUID prefers the stable local id so repeated exports stay consistent.
func eventUID(event *models.CalendarEvent) string {
	if event.ID != "" {
		return event.ID
	}
	return uuid.New().String()
}
