package sideeffect

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/advisordesk/advisor-booking-agent/internal/booking"
	"github.com/advisordesk/advisor-booking-agent/internal/clock"
)

// appointmentDuration is the fixed consultation length.
const appointmentDuration = 30 * time.Minute

// GoogleCalendar mirrors bookings as events on one shared calendar,
// authenticated with a service account.
type GoogleCalendar struct {
	service    *gcal.Service
	calendarID string
}

// NewGoogleCalendar builds the calendar client from a service-account key file.
func NewGoogleCalendar(ctx context.Context, credentialsPath, calendarID string) (*GoogleCalendar, error) {
	if credentialsPath == "" || calendarID == "" {
		return nil, errors.New("sideeffect: calendar credentials and id required")
	}
	service, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sideeffect: create calendar service: %w", err)
	}
	return &GoogleCalendar{service: service, calendarID: calendarID}, nil
}

func (g *GoogleCalendar) CreateEvent(ctx context.Context, b booking.Booking) (Event, error) {
	created, err := g.service.Events.Insert(g.calendarID, buildEvent(b)).Context(ctx).Do()
	if err != nil {
		return Event{}, fmt.Errorf("sideeffect: create event: %w", err)
	}
	return Event{Ref: created.Id, Link: created.HtmlLink}, nil
}

func (g *GoogleCalendar) UpdateEvent(ctx context.Context, ref string, b booking.Booking) error {
	if _, err := g.service.Events.Update(g.calendarID, ref, buildEvent(b)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sideeffect: update event: %w", err)
	}
	return nil
}

func (g *GoogleCalendar) DeleteEvent(ctx context.Context, ref string) error {
	if err := g.service.Events.Delete(g.calendarID, ref).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sideeffect: delete event: %w", err)
	}
	return nil
}

func buildEvent(b booking.Booking) *gcal.Event {
	start := eventStart(b.Slot)
	return &gcal.Event{
		Summary:     fmt.Sprintf("Advisor consultation: %s (%s)", b.Topic, b.Code),
		Description: fmt.Sprintf("Booking code %s, topic %s.", b.Code, b.Topic),
		Start: &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: clock.TimezoneName,
		},
		End: &gcal.EventDateTime{
			DateTime: start.Add(appointmentDuration).Format(time.RFC3339),
			TimeZone: clock.TimezoneName,
		},
	}
}

func eventStart(s booking.Slot) time.Time {
	date, err := clock.ParseDate(s.Date)
	if err != nil {
		return time.Time{}
	}
	return clock.Combine(date, s.Time.Hour(), 0)
}
