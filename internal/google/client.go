package google

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"famsync/internal/models"
)

// maxResults is the Google Calendar API maximum page size.
const maxResults = 250

// CalendarClient is a thin authenticated wrapper over the Google Calendar
// API. Every method maps to one remote call (plus pagination) and translates
// transport failures into the typed taxonomy in errors.go.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
}

// NewCalendarClient builds a client from a token source, typically
// TokenManager.TokenSource.
func NewCalendarClient(ctx context.Context, logger *slog.Logger, ts oauth2.TokenSource, extra ...option.ClientOption) (*CalendarClient, error) {
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, extra...)
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &CalendarClient{service: service, logger: logger}, nil
}

// ListCalendars returns every calendar visible to the account.
func (c *CalendarClient) ListCalendars(ctx context.Context) ([]models.CalendarInfo, error) {
	var infos []models.CalendarInfo
	pageToken := ""
	for {
		call := c.service.CalendarList.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, classifyAPIError("list calendars", err)
		}
		for _, item := range list.Items {
			infos = append(infos, models.CalendarInfo{
				ID:       item.Id,
				Summary:  item.Summary,
				Primary:  item.Primary,
				TimeZone: item.TimeZone,
			})
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			break
		}
	}
	c.logger.Debug("Listed calendars.", "count", len(infos))
	return infos, nil
}

// ListEvents returns all events in [timeMin, timeMax) for one calendar,
// following pagination. Recurring events are expanded to single instances.
func (c *CalendarClient) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*calendar.Event, error) {
	var all []*calendar.Event
	pageToken := ""
	for {
		call := c.service.Events.List(calendarID).
			Context(ctx).
			ShowDeleted(false).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(maxResults).
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339))
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		events, err := call.Do()
		if err != nil {
			return nil, classifyAPIError(fmt.Sprintf("list events for calendar %s", calendarID), err)
		}
		all = append(all, events.Items...)

		pageToken = events.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Info("Fetched events from Google Calendar.", "count", len(all), "calendarID", calendarID)
	return all, nil
}

// CreateEvent inserts a new event and returns the stored copy with its
// server-assigned id.
func (c *CalendarClient) CreateEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	created, err := c.service.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, classifyAPIError("create event", err)
	}
	c.logger.Debug("Created remote event.", "calendarID", calendarID, "eventID", created.Id)
	return created, nil
}

// UpdateEvent replaces an existing event.
func (c *CalendarClient) UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) (*calendar.Event, error) {
	updated, err := c.service.Events.Update(calendarID, eventID, event).Context(ctx).Do()
	if err != nil {
		return nil, classifyAPIError(fmt.Sprintf("update event %s", eventID), err)
	}
	c.logger.Debug("Updated remote event.", "calendarID", calendarID, "eventID", eventID)
	return updated, nil
}

// DeleteEvent removes an event from a calendar.
func (c *CalendarClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := c.service.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return classifyAPIError(fmt.Sprintf("delete event %s", eventID), err)
	}
	c.logger.Debug("Deleted remote event.", "calendarID", calendarID, "eventID", eventID)
	return nil
}
