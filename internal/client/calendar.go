package client

import (
	"context"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
)

// EventRange limits CalendarEvents to events overlapping [From, To): an event
// ending exactly at From is kept, one starting exactly at To is not. Zero
// bounds are open.
type EventRange struct {
	From time.Time
	To   time.Time
}

func (r EventRange) values() url.Values {
	q := url.Values{}
	if !r.From.IsZero() {
		q.Set("from", r.From.UTC().Format(time.RFC3339))
	}
	if !r.To.IsZero() {
		q.Set("to", r.To.UTC().Format(time.RFC3339))
	}
	return q
}

// CalendarEvents lists the caller's events ordered by start time.
func (c *Client) CalendarEvents(ctx context.Context, r EventRange) ([]model.CalendarEvent, error) {
	q := r.values()
	key := queryKey(realtime.KeyCalendarEvents, "list", q.Encode())
	return fetchAs(ctx, c.cache, key, func(ctx context.Context) ([]model.CalendarEvent, error) {
		var resp struct {
			Events []model.CalendarEvent `json:"events"`
		}
		if err := c.Get(ctx, withQuery("/calendar/events", q), &resp); err != nil {
			return nil, err
		}
		return resp.Events, nil
	})
}

// UpcomingEvents returns the next n events starting at or after now, soonest
// first, matching the server's upcoming count. It filters the full event list locally.
func (c *Client) UpcomingEvents(ctx context.Context, n int) ([]model.CalendarEvent, error) {
	key := queryKey(realtime.KeyUpcomingEvents, strconv.Itoa(n))
	return fetchAs(ctx, c.cache, key, func(ctx context.Context) ([]model.CalendarEvent, error) {
		var resp struct {
			Events []model.CalendarEvent `json:"events"`
		}
		if err := c.Get(ctx, "/calendar/events", &resp); err != nil {
			return nil, err
		}
		return upcoming(resp.Events, c.now(), n), nil
	})
}

func upcoming(events []model.CalendarEvent, now time.Time, n int) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(events))
	for _, e := range events {
		if !e.StartTime.Before(now) {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b model.CalendarEvent) int {
		return a.StartTime.Compare(b.StartTime)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CalendarEvent fetches one event.
func (c *Client) CalendarEvent(ctx context.Context, id string) (*model.CalendarEvent, error) {
	key := queryKey(realtime.KeyCalendarEvents, "detail", id)
	return fetchAs(ctx, c.cache, key, func(ctx context.Context) (*model.CalendarEvent, error) {
		var resp eventEnvelope
		if err := c.Get(ctx, "/calendar/events/"+escape(id), &resp); err != nil {
			return nil, err
		}
		return resp.Event, nil
	})
}

type eventEnvelope struct {
	Event *model.CalendarEvent `json:"event"`
}

func (c *Client) CreateCalendarEvent(ctx context.Context, in request.CreateCalendarEvent) (*model.CalendarEvent, error) {
	var resp eventEnvelope
	if err := c.Post(ctx, "/calendar/events", in, &resp); err != nil {
		return nil, err
	}
	c.eventsChanged()
	return resp.Event, nil
}

func (c *Client) UpdateCalendarEvent(ctx context.Context, id string, in request.UpdateCalendarEvent) (*model.CalendarEvent, error) {
	var resp eventEnvelope
	if err := c.Put(ctx, "/calendar/events/"+escape(id), in, &resp); err != nil {
		return nil, err
	}
	c.eventsChanged()
	return resp.Event, nil
}

func (c *Client) DeleteCalendarEvent(ctx context.Context, id string) error {
	if err := c.Delete(ctx, "/calendar/events/"+escape(id), nil); err != nil {
		return err
	}
	c.eventsChanged()
	return nil
}

func (c *Client) eventsChanged() {
	c.invalidate(realtime.KeyCalendarEvents, realtime.KeyUpcomingEvents, realtime.KeyStats)
}
