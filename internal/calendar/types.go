package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// EventInput represents the input for creating a calendar event.
type EventInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string // IANA name; defaults to UTC
}

// Event represents a simplified calendar event.
type Event struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Status      string
}

// toEvent converts a Google Calendar event to an Event. All-day events
// carry a date instead of a datetime; both forms are handled.
func toEvent(event *calendar.Event) Event {
	if event == nil {
		return Event{}
	}

	e := Event{
		ID:          event.Id,
		Title:       event.Summary,
		Description: event.Description,
		Status:      event.Status,
	}

	e.Start = parseEventTime(event.Start)
	e.End = parseEventTime(event.End)
	return e
}

func parseEventTime(edt *calendar.EventDateTime) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse("2006-01-02", edt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
