package handler

import (
	"net/http"

	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/api/response"
	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
)

const (
	defaultUpcomingLimit = 3
	maxUpcomingLimit     = 50
)

type CalendarEvent struct {
	svc *core.CalendarEventService
	pub Publisher
}

func NewCalendarEvent(svc *core.CalendarEventService, pub Publisher) *CalendarEvent {
	return &CalendarEvent{svc: svc, pub: pub}
}

type eventsResponse struct {
	Events []model.CalendarEvent `json:"events"`
}

type eventResponse struct {
	Event *model.CalendarEvent `json:"event"`
}

func (h *CalendarEvent) changed(userID string) {
	notify(h.pub, userID, realtime.KeyCalendarEvents, realtime.KeyUpcomingEvents, realtime.KeyStats)
}

// List returns the caller's events ordered by start time.
//
//	@Summary      List calendar events
//	@Description  Events overlapping the optional [from, to) window, ordered by start_time.
//	@Tags         Calendar
//	@Produce      json
//	@Param        from  query     string  false  "RFC 3339 timestamp or YYYY-MM-DD"
//	@Param        to    query     string  false  "RFC 3339 timestamp or YYYY-MM-DD"
//	@Success      200   {object}  eventsResponse
//	@Failure      400   {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /calendar/events [get]
func (h *CalendarEvent) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	from, err := request.QueryTime(r, "from")
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := request.QueryTime(r, "to")
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.svc.List(r.Context(), userID, core.EventRange{From: from, To: to})
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, eventsResponse{Events: events})
}

// Upcoming returns the caller's next events that have not started yet.
//
//	@Summary      Upcoming calendar events
//	@Tags         Calendar
//	@Produce      json
//	@Param        limit  query     int  false  "Number of events (default 3)"
//	@Success      200    {object}  eventsResponse
//	@Security     BearerAuth
//	@Router       /calendar/events/upcoming [get]
func (h *CalendarEvent) Upcoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	limit := min(request.QueryInt(r, "limit", defaultUpcomingLimit), maxUpcomingLimit)
	events, err := h.svc.Upcoming(r.Context(), userID, limit)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, eventsResponse{Events: events})
}

// Create adds an event for the caller.
//
//	@Summary      Create calendar event
//	@Description  end_time must not be before start_time. Color defaults to #22c55e and reminders to [0].
//	@Tags         Calendar
//	@Accept       json
//	@Produce      json
//	@Param        body  body      request.CreateCalendarEvent  true  "Event"
//	@Success      201   {object}  eventResponse
//	@Failure      400   {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /calendar/events [post]
func (h *CalendarEvent) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req request.CreateCalendarEvent
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.svc.Create(r.Context(), &model.CalendarEvent{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		AllDay:      req.AllDay,
		Location:    req.Location,
		Color:       req.Color,
		Recurrence:  req.Recurrence,
		Reminders:   req.Reminders,
	})
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	h.changed(userID)
	response.WriteJSON(w, http.StatusCreated, eventResponse{Event: event})
}

// Get returns one of the caller's events.
//
//	@Summary      Get calendar event
//	@Tags         Calendar
//	@Produce      json
//	@Param        id   path      string  true  "Event ID"
//	@Success      200  {object}  eventResponse
//	@Failure      404  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /calendar/events/{id} [get]
func (h *CalendarEvent) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	event, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, eventResponse{Event: event})
}

// Update changes the supplied fields of an event.
//
//	@Summary      Update calendar event
//	@Tags         Calendar
//	@Accept       json
//	@Produce      json
//	@Param        id    path      string                       true  "Event ID"
//	@Param        body  body      request.UpdateCalendarEvent  true  "Fields to change"
//	@Success      200   {object}  eventResponse
//	@Failure      400   {object}  response.ErrorResponse
//	@Failure      404   {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /calendar/events/{id} [put]
func (h *CalendarEvent) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.UpdateCalendarEvent
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.svc.Update(r.Context(), userID, id, core.EventPatch{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		AllDay:      req.AllDay,
		Location:    req.Location,
		Color:       req.Color,
		Recurrence:  req.Recurrence,
		Reminders:   req.Reminders,
	})
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	h.changed(userID)
	response.WriteJSON(w, http.StatusOK, eventResponse{Event: event})
}

// Delete removes one of the caller's events.
//
//	@Summary      Delete calendar event
//	@Tags         Calendar
//	@Produce      json
//	@Param        id   path      string  true  "Event ID"
//	@Success      200  {object}  response.SuccessResponse
//	@Failure      404  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /calendar/events/{id} [delete]
func (h *CalendarEvent) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	h.changed(userID)
	response.WriteSuccess(w)
}
