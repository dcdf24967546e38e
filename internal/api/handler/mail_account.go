package handler

import (
	"net/http"

	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/api/response"
	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
)

type MailAccount struct {
	svc *core.MailAccountService
	pub Publisher
}

func NewMailAccount(svc *core.MailAccountService, pub Publisher) *MailAccount {
	return &MailAccount{svc: svc, pub: pub}
}

type mailAccountsResponse struct {
	Accounts []model.MailAccount `json:"accounts"`
}

type mailAccountResponse struct {
	Account *model.MailAccount `json:"account"`
}

// List returns the caller's mail accounts.
//
//	@Summary      List mail accounts
//	@Tags         Mail
//	@Produce      json
//	@Success      200  {object}  mailAccountsResponse
//	@Security     BearerAuth
//	@Router       /mail/accounts [get]
func (h *MailAccount) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	accounts, err := h.svc.List(r.Context(), userID)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, mailAccountsResponse{Accounts: accounts})
}

// Create connects a mail account for the caller.
//
//	@Summary      Create mail account
//	@Tags         Mail
//	@Accept       json
//	@Produce      json
//	@Param        body  body      request.CreateMailAccount  true  "Account"
//	@Success      201   {object}  mailAccountResponse
//	@Failure      400   {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /mail/accounts [post]
func (h *MailAccount) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req request.CreateMailAccount
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	account, err := h.svc.Create(r.Context(), &model.MailAccount{
		UserID:       userID,
		Provider:     req.Provider,
		EmailAddress: req.EmailAddress,
		DisplayName:  req.DisplayName,
		IMAPHost:     req.IMAPHost,
		IMAPPort:     req.IMAPPort,
		SMTPHost:     req.SMTPHost,
		SMTPPort:     req.SMTPPort,
		IsActive:     active,
	})
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	notify(h.pub, userID, realtime.KeyMailAccounts)
	response.WriteJSON(w, http.StatusCreated, mailAccountResponse{Account: account})
}

// Sync records that the account was synchronized just now.
//
//	@Summary      Sync mail account
//	@Tags         Mail
//	@Produce      json
//	@Param        id   path      string  true  "Mail account ID"
//	@Success      200  {object}  mailAccountResponse
//	@Failure      404  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /mail/accounts/{id}/sync [post]
func (h *MailAccount) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	account, err := h.svc.MarkSynced(r.Context(), userID, id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	notify(h.pub, userID, realtime.KeyMailAccounts, realtime.KeyEmails)
	response.WriteJSON(w, http.StatusOK, mailAccountResponse{Account: account})
}

// Delete removes a mail account together with its emails.
//
//	@Summary      Delete mail account
//	@Tags         Mail
//	@Produce      json
//	@Param        id   path      string  true  "Mail account ID"
//	@Success      200  {object}  response.SuccessResponse
//	@Failure      404  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /mail/accounts/{id} [delete]
func (h *MailAccount) Delete(w http.ResponseWriter, r *http.Request) {
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
	notify(h.pub, userID, realtime.KeyMailAccounts, realtime.KeyEmails, realtime.KeyStats)
	response.WriteSuccess(w)
}
