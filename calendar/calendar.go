// Package calendar lists today's events from Google Calendar.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"morningbrief/types"
)

// Client reads one calendar
type Client struct {
	service    *gcal.Service
	calendarID string
	loc        *time.Location
	logger     *slog.Logger
}

// NewClient builds a client authorized by session. Extra options are passed to
// the Calendar service, after the session's token source.
func NewClient(ctx context.Context, session *Session, calendarID string, loc *time.Location, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	ts, err := session.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return newClient(ctx, calendarID, loc, logger, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
}

func newClient(ctx context.Context, calendarID string, loc *time.Location, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	service, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{service: service, calendarID: calendarID, loc: loc, logger: logger}, nil
}

// Today returns the events between local midnight and the next midnight,
// recurring events expanded, ordered by start time
func (c *Client) Today(ctx context.Context, now time.Time) ([]types.CalendarEvent, error) {
	start, end := dayBounds(now.In(c.loc))

	resp, err := c.service.Events.List(c.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list calendar events: %w", err)
	}

	events := make([]types.CalendarEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		ev, err := toEvent(item, c.loc)
		if err != nil {
			c.logger.Warn("skipping calendar event", "id", item.Id, "error", err)
			continue
		}
		events = append(events, ev)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].AllDay != events[j].AllDay {
			return events[i].AllDay
		}
		return events[i].Start.Before(events[j].Start)
	})

	c.logger.Info("calendar events fetched", "count", len(events))
	return events, nil
}

func dayBounds(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

func toEvent(item *gcal.Event, loc *time.Location) (types.CalendarEvent, error) {
	ev := types.CalendarEvent{Title: item.Summary, Location: item.Location}
	if ev.Title == "" {
		ev.Title = "No Title"
	}
	if item.Start == nil {
		return ev, fmt.Errorf("event has no start")
	}

	if item.Start.DateTime == "" {
		ev.AllDay = true
		start, err := time.ParseInLocation("2006-01-02", item.Start.Date, loc)
		if err != nil {
			return ev, err
		}
		ev.Start = start
		ev.End = start.AddDate(0, 0, 1)
		if item.End != nil && item.End.Date != "" {
			if end, err := time.ParseInLocation("2006-01-02", item.End.Date, loc); err == nil {
				ev.End = end
			}
		}
		return ev, nil
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return ev, err
	}
	ev.Start = start.In(loc)
	ev.End = ev.Start
	if item.End != nil && item.End.DateTime != "" {
		if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
			ev.End = end.In(loc)
		}
	}
	return ev, nil
}
