package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/calchat/calchat/internal/actions"
	"github.com/calchat/calchat/internal/calendar"
	"github.com/calchat/calchat/internal/google"
	"github.com/calchat/calchat/internal/logging"
	"github.com/calchat/calchat/internal/store"
)

// failurePrefix marks every failure observation. The model (and the
// user) tell failures from successes by this prefix alone.
const failurePrefix = "Error:"

// observationTimeLayout renders instants in observations the way a
// person would say them.
const observationTimeLayout = "January 2, 2006 at 3:04 PM"

// AppointmentStore is the slice of the persistence layer the adapter
// writes bookings to and reads them from.
type AppointmentStore interface {
	SaveAppointment(ctx context.Context, appt *store.Appointment) error
	Appointments(ctx context.Context, userID string, date *time.Time) ([]store.Appointment, error)
}

// ExternalCalendar is the external provider client for one authorized
// user.
type ExternalCalendar interface {
	CreateEvent(ctx context.Context, input calendar.EventInput) (*calendar.Event, error)
	ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// ConnectFunc resolves a user id to their external calendar client.
// It reports google.ErrNotConnected when the user has no valid
// authorization.
type ConnectFunc func(ctx context.Context, userID string) (ExternalCalendar, error)

// Adapter executes the calendar actions.
type Adapter struct {
	appointments AppointmentStore
	connect      ConnectFunc
	logger       *slog.Logger
	now          func() time.Time
}

// NewAdapter builds an Adapter. logger may be nil, in which case the
// process default is used.
func NewAdapter(appointments AppointmentStore, connect ConnectFunc, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		appointments: appointments,
		connect:      connect,
		logger:       logger,
		now:          time.Now,
	}
}

// Execute dispatches one action to its operation. The switch is
// exhaustive over the action kinds; every branch returns an
// observation string, never an error.
func (a *Adapter) Execute(ctx context.Context, userID string, kind actions.Kind, args map[string]any) string {
	switch kind {
	case actions.KindBook:
		title := stringArg(args, "title")
		if title == "" {
			return failurePrefix + " a title is required to book an appointment."
		}
		start, err := timeArg(args, "start_time")
		if err != nil {
			return fmt.Sprintf("%s invalid start_time: %v.", failurePrefix, err)
		}
		end, err := timeArg(args, "end_time")
		if err != nil {
			return fmt.Sprintf("%s invalid end_time: %v.", failurePrefix, err)
		}
		return a.Book(ctx, userID, title, stringArg(args, "description"), start, end)

	case actions.KindList:
		var date *time.Time
		if raw := stringArg(args, "date"); raw != "" {
			d, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return fmt.Sprintf("%s invalid date filter %q, expected YYYY-MM-DD.", failurePrefix, raw)
			}
			date = &d
		}
		return a.List(ctx, userID, date)

	case actions.KindCancel:
		eventID := stringArg(args, "event_id")
		if eventID == "" {
			return failurePrefix + " an event_id is required to cancel an appointment."
		}
		return a.Cancel(ctx, userID, eventID)

	case actions.KindCheckAvailability:
		start, err := timeArg(args, "start_time")
		if err != nil {
			return fmt.Sprintf("%s invalid start_time: %v.", failurePrefix, err)
		}
		end, err := timeArg(args, "end_time")
		if err != nil {
			return fmt.Sprintf("%s invalid end_time: %v.", failurePrefix, err)
		}
		return a.CheckAvailability(ctx, userID, start, end)
	}

	return fmt.Sprintf("%s unsupported action.", failurePrefix)
}

// Book validates the interval, attempts the external create when the
// user is authorized, and saves the appointment locally no matter what
// happened externally. The observation wording distinguishes a synced
// booking from a local-only one.
func (a *Adapter) Book(ctx context.Context, userID, title, description string, start, end time.Time) string {
	logger := logging.WithAction(a.logger, actions.NameBook)

	if !start.Before(end) {
		return failurePrefix + " the appointment end time must be after its start time."
	}

	var externalID *string
	client, err := a.connect(ctx, userID)
	switch {
	case errors.Is(err, google.ErrNotConnected):
		logger.Debug("external calendar not connected", logging.UserHash(userID))
	case err != nil:
		logger.Warn("external calendar unavailable", logging.UserHash(userID), logging.Err(err))
	default:
		event, createErr := client.CreateEvent(ctx, calendar.EventInput{
			Title:       title,
			Description: description,
			Start:       start,
			End:         end,
		})
		if createErr != nil {
			// Swallowed: the external write is best-effort.
			logger.Warn("external event create failed", logging.UserHash(userID), logging.Err(createErr))
		} else {
			externalID = &event.ID
		}
	}

	appt := &store.Appointment{
		UserID:        userID,
		Title:         title,
		Description:   description,
		StartTime:     start,
		EndTime:       end,
		GoogleEventID: externalID,
	}
	if err := a.appointments.SaveAppointment(ctx, appt); err != nil {
		// The local store is the source of truth; without the local row
		// the booking did not happen, even if the external write landed.
		logger.Error("local appointment save failed", logging.UserHash(userID), logging.Err(err))
		return fmt.Sprintf("%s could not save the appointment: %v.", failurePrefix, err)
	}

	when := start.Format(observationTimeLayout)
	if externalID != nil {
		logger.Info("appointment booked", logging.UserHash(userID), logging.Status("synced"))
		return fmt.Sprintf("Appointment %q booked for %s and synced with Google Calendar.", title, when)
	}
	logger.Info("appointment booked", logging.UserHash(userID), logging.Status("local-only"))
	return fmt.Sprintf("Appointment %q booked for %s (saved locally, Google Calendar sync pending).", title, when)
}

// List merges local appointments with external events, excluding any
// external event already represented by a local appointment's external
// reference id.
func (a *Adapter) List(ctx context.Context, userID string, date *time.Time) string {
	logger := logging.WithAction(a.logger, actions.NameList)

	locals, err := a.appointments.Appointments(ctx, userID, date)
	if err != nil {
		logger.Error("local appointment read failed", logging.UserHash(userID), logging.Err(err))
		return fmt.Sprintf("%s could not read appointments: %v.", failurePrefix, err)
	}

	var externals []calendar.Event
	client, err := a.connect(ctx, userID)
	switch {
	case errors.Is(err, google.ErrNotConnected):
		logger.Debug("external calendar not connected", logging.UserHash(userID))
	case err != nil:
		logger.Warn("external calendar unavailable", logging.UserHash(userID), logging.Err(err))
	default:
		timeMin, timeMax := listWindow(a.now(), date)
		externals, err = client.ListEvents(ctx, timeMin, timeMax)
		if err != nil {
			logger.Warn("external event list failed", logging.UserHash(userID), logging.Err(err))
			externals = nil
		}
	}

	// De-duplication key: the external reference id.
	seen := make(map[string]struct{}, len(locals))
	for _, appt := range locals {
		if appt.Synced() {
			seen[*appt.GoogleEventID] = struct{}{}
		}
	}

	var b strings.Builder
	count := 0

	for _, appt := range locals {
		count++
		fmt.Fprintf(&b, "- %s\n", appt.Title)
		fmt.Fprintf(&b, "  Time: %s to %s\n", appt.StartTime.Format(observationTimeLayout), appt.EndTime.Format(observationTimeLayout))
		if appt.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", appt.Description)
		}
		if appt.Synced() {
			fmt.Fprintf(&b, "  Status: synced (event id %s)\n", *appt.GoogleEventID)
		} else {
			b.WriteString("  Status: local only\n")
		}
	}

	for _, event := range externals {
		if _, dup := seen[event.ID]; dup {
			continue
		}
		count++
		fmt.Fprintf(&b, "- %s (Google Calendar only, event id %s)\n", event.Title, event.ID)
		fmt.Fprintf(&b, "  Time: %s to %s\n", event.Start.Format(observationTimeLayout), event.End.Format(observationTimeLayout))
		if event.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", event.Description)
		}
	}

	if count == 0 {
		return "No appointments found."
	}
	return fmt.Sprintf("Your appointments:\n%s", b.String())
}

// Cancel deletes the external event. Cancelling requires external
// authorization: an appointment that never synced has no event id the
// user could name.
func (a *Adapter) Cancel(ctx context.Context, userID, eventID string) string {
	logger := logging.WithAction(a.logger, actions.NameCancel)

	client, err := a.connect(ctx, userID)
	if errors.Is(err, google.ErrNotConnected) {
		return failurePrefix + " Google Calendar is not connected. Connect your calendar first."
	}
	if err != nil {
		logger.Warn("external calendar unavailable", logging.UserHash(userID), logging.Err(err))
		return fmt.Sprintf("%s could not reach Google Calendar: %v.", failurePrefix, err)
	}

	if err := client.DeleteEvent(ctx, eventID); err != nil {
		logger.Warn("external event delete failed", logging.UserHash(userID), logging.Err(err))
		return fmt.Sprintf("%s could not cancel the appointment: %v.", failurePrefix, err)
	}

	// The local appointment row is left untouched; whether cancellation
	// should mark it is still an unsettled question upstream.
	logger.Info("appointment cancelled", logging.UserHash(userID))
	return "Appointment cancelled."
}

// CheckAvailability reports whether the slot [start, end) is free of
// external events, enumerating every conflict in provider order.
func (a *Adapter) CheckAvailability(ctx context.Context, userID string, start, end time.Time) string {
	logger := logging.WithAction(a.logger, actions.NameCheckAvailability)

	client, err := a.connect(ctx, userID)
	if errors.Is(err, google.ErrNotConnected) {
		return failurePrefix + " Google Calendar is not connected. Connect your calendar first."
	}
	if err != nil {
		logger.Warn("external calendar unavailable", logging.UserHash(userID), logging.Err(err))
		return fmt.Sprintf("%s could not reach Google Calendar: %v.", failurePrefix, err)
	}

	events, err := client.ListEvents(ctx, start, end)
	if err != nil {
		logger.Warn("external event list failed", logging.UserHash(userID), logging.Err(err))
		return fmt.Sprintf("%s could not check availability: %v.", failurePrefix, err)
	}

	from := start.Format(observationTimeLayout)
	to := end.Format(observationTimeLayout)

	if len(events) == 0 {
		return fmt.Sprintf("The time slot from %s to %s is available.", from, to)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The time slot from %s to %s is not available. Conflicts:\n", from, to)
	for _, event := range events {
		fmt.Fprintf(&b, "- %s (%s to %s)\n",
			event.Title,
			event.Start.Format(observationTimeLayout),
			event.End.Format(observationTimeLayout))
	}
	return b.String()
}

// listWindow computes the external query window: the given day when a
// date filter is set, otherwise open-ended from now.
func listWindow(now time.Time, date *time.Time) (time.Time, time.Time) {
	if date == nil {
		return now, time.Time{}
	}
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return dayStart, dayStart.Add(24 * time.Hour)
}

func stringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return strings.TrimSpace(v)
}

// timeArg parses a time argument, accepting RFC3339 and naive ISO
// timestamps (treated as UTC), which is how the model is instructed to
// format times.
func timeArg(args map[string]any, name string) (time.Time, error) {
	raw := stringArg(args, name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%s must be an ISO timestamp", name)
}
