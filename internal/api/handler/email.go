package handler

import (
	"net/http"
	"time"

	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/api/response"
	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
)

type Email struct {
	svc *core.EmailService
	pub Publisher
}

func NewEmail(svc *core.EmailService, pub Publisher) *Email {
	return &Email{svc: svc, pub: pub}
}

type emailsResponse struct {
	Emails     []model.Email `json:"emails"`
	NextCursor string        `json:"next_cursor,omitempty"`
	HasMore    bool          `json:"has_more"`
}

type emailResponse struct {
	Email *model.Email `json:"email"`
}

func (h *Email) changed(userID string) {
	notify(h.pub, userID, realtime.KeyEmails, realtime.KeyStats)
}

// List returns a page of the caller's emails, newest first.
//
//	@Summary      List emails
//	@Tags         Mail
//	@Produce      json
//	@Param        account_id  query     string  false  "Mail account ID"
//	@Param        folder      query     string  false  "Folder (inbox, sent, drafts, trash, spam)"
//	@Param        unread      query     bool    false  "Only unread"
//	@Param        limit       query     int     false  "Page size (default 50, max 200)"
//	@Param        cursor      query     string  false  "next_cursor of the previous page"
//	@Success      200         {object}  emailsResponse
//	@Security     BearerAuth
//	@Router       /mail/emails [get]
func (h *Email) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	pg := request.ParsePagination(r)
	q := r.URL.Query()
	emails, hasMore, err := h.svc.List(r.Context(), userID, core.EmailFilter{
		AccountID:  q.Get("account_id"),
		Folder:     q.Get("folder"),
		UnreadOnly: request.QueryBool(r, "unread"),
		Limit:      pg.Limit,
		Cursor:     pg.Cursor,
	})
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	var next string
	if hasMore && len(emails) > 0 {
		next = emails[len(emails)-1].ID
	}
	response.WriteJSON(w, http.StatusOK, emailsResponse{Emails: emails, NextCursor: next, HasMore: hasMore})
}

// Create stores an email in one of the caller's mail accounts.
//
//	@Summary      Store email
//	@Description  Folder defaults to inbox, or drafts when is_draft is set. received_at defaults to now.
//	@Tags         Mail
//	@Accept       json
//	@Produce      json
//	@Param        body  body      request.CreateEmail  true  "Email"
//	@Success      201   {object}  emailResponse
//	@Failure      400   {object}  response.ErrorResponse
//	@Failure      404   {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /mail/emails [post]
func (h *Email) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req request.CreateEmail
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var received time.Time
	if req.ReceivedAt != nil {
		received = *req.ReceivedAt
	}
	email, err := h.svc.Create(r.Context(), &model.Email{
		UserID:         userID,
		MailAccountID:  req.MailAccountID,
		MessageID:      req.MessageID,
		FromAddress:    req.FromAddress,
		FromName:       req.FromName,
		ToAddresses:    req.ToAddresses,
		CcAddresses:    req.CcAddresses,
		BccAddresses:   req.BccAddresses,
		Subject:        req.Subject,
		BodyText:       req.BodyText,
		BodyHTML:       req.BodyHTML,
		Folder:         req.Folder,
		IsRead:         req.IsRead,
		IsStarred:      req.IsStarred,
		IsDraft:        req.IsDraft,
		HasAttachments: req.HasAttachments,
		ReceivedAt:     received,
	})
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	h.changed(userID)
	response.WriteJSON(w, http.StatusCreated, emailResponse{Email: email})
}

// Get returns one of the caller's emails.
//
//	@Summary      Get email
//	@Tags         Mail
//	@Produce      json
//	@Param        id   path      string  true  "Email ID"
//	@Success      200  {object}  emailResponse
//	@Failure      404  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /mail/emails/{id} [get]
func (h *Email) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	email, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, emailResponse{Email: email})
}

// SetRead marks an email read or unread.
//
//	@Summary      Mark email read
//	@Tags         Mail
//	@Accept       json
//	@Produce      json
//	@Param        id    path      string           true  "Email ID"
//	@Param        body  body      request.SetRead  true  "Read flag"
//	@Success      200   {object}  emailResponse
//	@Failure      400   {object}  response.ErrorResponse
//	@Failure      404   {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /mail/emails/{id}/read [post]
func (h *Email) SetRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.SetRead
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	email, err := h.svc.SetRead(r.Context(), userID, id, *req.IsRead)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	h.changed(userID)
	response.WriteJSON(w, http.StatusOK, emailResponse{Email: email})
}

// ToggleStar flips an email's starred flag.
//
//	@Summary      Toggle star
//	@Tags         Mail
//	@Produce      json
//	@Param        id   path      string  true  "Email ID"
//	@Success      200  {object}  emailResponse
//	@Failure      404  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /mail/emails/{id}/star [post]
func (h *Email) ToggleStar(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	email, err := h.svc.ToggleStar(r.Context(), userID, id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	notify(h.pub, userID, realtime.KeyEmails)
	response.WriteJSON(w, http.StatusOK, emailResponse{Email: email})
}

// Delete removes one of the caller's emails.
//
//	@Summary      Delete email
//	@Tags         Mail
//	@Produce      json
//	@Param        id   path      string  true  "Email ID"
//	@Success      200  {object}  response.SuccessResponse
//	@Failure      404  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /mail/emails/{id} [delete]
func (h *Email) Delete(w http.ResponseWriter, r *http.Request) {
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
