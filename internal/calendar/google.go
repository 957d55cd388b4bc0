package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/Yolouth/rezerwacja-konsultacji/internal/domain"
)

// Every training session blocks one hour in the trainer's calendar.
const eventDuration = time.Hour

type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string
}

// Complete reports whether all OAuth credentials needed for calendar sync
// are present.
func (c Config) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Client creates training events on the trainer's Google Calendar.
type Client struct {
	svc        *gcal.Service
	calendarID string
	loc        *time.Location
}

// NewClient builds a calendar client from a long-lived OAuth refresh token;
// access tokens are minted and refreshed by the token source as needed.
func NewClient(ctx context.Context, cfg Config, loc *time.Location) (*Client, error) {
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarScope},
	}
	ts := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Client{svc: svc, calendarID: calendarID, loc: loc}, nil
}

// CreateBookingEvent inserts a one-hour event for the booking, invites the
// client and sets an email reminder a day ahead plus a popup an hour ahead.
func (c *Client) CreateBookingEvent(ctx context.Context, b domain.Booking) (string, error) {
	start := b.StartTime(c.loc)
	end := start.Add(eventDuration)

	phone := b.Phone
	if phone == "" {
		phone = "nie podano"
	}

	event := &gcal.Event{
		Summary:     "Konsultacja fitness - " + b.ClientName,
		Description: fmt.Sprintf("Klient: %s\nEmail: %s\nTelefon: %s", b.ClientName, b.ClientEmail, phone),
		Start: &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: c.loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: c.loc.String(),
		},
		Attendees: []*gcal.EventAttendee{
			{Email: b.ClientEmail},
		},
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 60},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	return created.Id, nil
}
