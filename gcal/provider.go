// ABOUTME: Provider abstraction over the Google Calendar API surface
// ABOUTME: Wraps events list/insert/update/delete and calendar listing
package gcal

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
)

// Provider is the slice of the calendar service the sync engine consumes.
// The engine never talks to Google directly, so tests substitute a fake.
type Provider interface {
	ListEvents(ctx context.Context, calendarID string, from time.Time, maxResults int64) ([]*calendar.Event, error)
	InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	ListCalendars(ctx context.Context) ([]*calendar.CalendarListEntry, error)
}

type googleProvider struct {
	service *calendar.Service
}

// NewGoogleProvider wraps an authenticated Calendar service.
func NewGoogleProvider(service *calendar.Service) Provider {
	return &googleProvider{service: service}
}

func (p *googleProvider) ListEvents(ctx context.Context, calendarID string, from time.Time, maxResults int64) ([]*calendar.Event, error) {
	result, err := p.service.Events.List(calendarID).
		TimeMin(from.Format(time.RFC3339)).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: list events: %v", ErrProviderRead, err)
	}

	return result.Items, nil
}

func (p *googleProvider) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	created, err := p.service.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: insert event: %v", ErrProviderWrite, err)
	}

	return created, nil
}

func (p *googleProvider) UpdateEvent(ctx context.Context, calendarID, eventID string, event *calendar.Event) (*calendar.Event, error) {
	updated, err := p.service.Events.Update(calendarID, eventID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: update event %s: %v", ErrProviderWrite, eventID, err)
	}

	return updated, nil
}

func (p *googleProvider) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := p.service.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: delete event %s: %v", ErrProviderWrite, eventID, err)
	}

	return nil
}

func (p *googleProvider) ListCalendars(ctx context.Context) ([]*calendar.CalendarListEntry, error) {
	result, err := p.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: list calendars: %v", ErrProviderRead, err)
	}

	return result.Items, nil
}
