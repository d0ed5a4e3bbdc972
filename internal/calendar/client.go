package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// primaryCalendarID is the well-known id of the user's primary calendar.
const primaryCalendarID = "primary"

// Client wraps the Google Calendar service for a single authorized user.
type Client struct {
	svc *calendar.Service
}

// NewClient creates a Calendar client backed by the given OAuth2 token
// source.
func NewClient(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	if ts == nil {
		return nil, fmt.Errorf("token source cannot be nil")
	}

	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc}, nil
}

// CreateEvent creates a new event on the primary calendar.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*Event, error) {
	tz := input.TimeZone
	if tz == "" {
		tz = "UTC"
	}

	event := &calendar.Event{
		Summary:     input.Title,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: tz,
		},
	}

	created, err := c.svc.Events.Insert(primaryCalendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	e := toEvent(created)
	return &e, nil
}

// ListEvents lists events on the primary calendar that overlap the
// [timeMin, timeMax) range, ordered by start time. A zero timeMax
// leaves the range open-ended.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]Event, error) {
	call := c.svc.Events.List(primaryCalendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	if !timeMax.IsZero() {
		call = call.TimeMax(timeMax.Format(time.RFC3339))
	}

	events, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var out []Event
	for _, event := range events.Items {
		out = append(out, toEvent(event))
	}
	return out, nil
}

// DeleteEvent deletes an event from the primary calendar.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if err := c.svc.Events.Delete(primaryCalendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}
