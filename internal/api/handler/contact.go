package handler

import (
	"net/http"

	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/api/response"
	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
)

type Contact struct {
	svc *core.ContactService
	pub Publisher
}

func NewContact(svc *core.ContactService, pub Publisher) *Contact {
	return &Contact{svc: svc, pub: pub}
}

type contactsResponse struct {
	Contacts []model.Contact `json:"contacts"`
}

type contactResponse struct {
	Contact *model.Contact `json:"contact"`
}

func (h *Contact) changed(userID string) {
	notify(h.pub, userID, realtime.KeyContacts, realtime.KeyStats)
}

// List returns the caller's contacts ordered by name.
//
//	@Summary      List contacts
//	@Tags         Contacts
//	@Produce      json
//	@Param        favorite  query     bool    false  "Only favorites"
//	@Param        q         query     string  false  "Match name, email or company"
//	@Success      200       {object}  contactsResponse
//	@Security     BearerAuth
//	@Router       /contacts [get]
func (h *Contact) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	contacts, err := h.svc.List(r.Context(), userID, core.ContactFilter{
		FavoritesOnly: request.QueryBool(r, "favorite"),
		Query:         r.URL.Query().Get("q"),
	})
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, contactsResponse{Contacts: contacts})
}

// Create adds a contact for the caller.
//
//	@Summary      Create contact
//	@Tags         Contacts
//	@Accept       json
//	@Produce      json
//	@Param        body  body      request.CreateContact  true  "Contact"
//	@Success      201   {object}  contactResponse
//	@Failure      400   {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /contacts [post]
func (h *Contact) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req request.CreateContact
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	contact, err := h.svc.Create(r.Context(), &model.Contact{
		UserID:     userID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Company:    req.Company,
		JobTitle:   req.JobTitle,
		Notes:      req.Notes,
		AvatarURL:  req.AvatarURL,
		IsFavorite: req.IsFavorite,
	})
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	h.changed(userID)
	response.WriteJSON(w, http.StatusCreated, contactResponse{Contact: contact})
}

// Get returns one of the caller's contacts.
//
//	@Summary      Get contact
//	@Tags         Contacts
//	@Produce      json
//	@Param        id   path      string  true  "Contact ID"
//	@Success      200  {object}  contactResponse
//	@Failure      404  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /contacts/{id} [get]
func (h *Contact) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	contact, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, contactResponse{Contact: contact})
}

// Update changes the supplied fields of a contact.
//
//	@Summary      Update contact
//	@Tags         Contacts
//	@Accept       json
//	@Produce      json
//	@Param        id    path      string                 true  "Contact ID"
//	@Param        body  body      request.UpdateContact  true  "Fields to change"
//	@Success      200   {object}  contactResponse
//	@Failure      400   {object}  response.ErrorResponse
//	@Failure      404   {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /contacts/{id} [put]
func (h *Contact) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.UpdateContact
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	contact, err := h.svc.Update(r.Context(), userID, id, core.ContactPatch{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Company:    req.Company,
		JobTitle:   req.JobTitle,
		Notes:      req.Notes,
		AvatarURL:  req.AvatarURL,
		IsFavorite: req.IsFavorite,
	})
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	h.changed(userID)
	response.WriteJSON(w, http.StatusOK, contactResponse{Contact: contact})
}

// ToggleFavorite flips a contact's favorite flag.
//
//	@Summary      Toggle favorite
//	@Tags         Contacts
//	@Produce      json
//	@Param        id   path      string  true  "Contact ID"
//	@Success      200  {object}  contactResponse
//	@Failure      404  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /contacts/{id}/favorite [post]
func (h *Contact) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	contact, err := h.svc.ToggleFavorite(r.Context(), userID, id)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	h.changed(userID)
	response.WriteJSON(w, http.StatusOK, contactResponse{Contact: contact})
}

// Delete removes one of the caller's contacts.
//
//	@Summary      Delete contact
//	@Tags         Contacts
//	@Produce      json
//	@Param        id   path      string  true  "Contact ID"
//	@Success      200  {object}  response.SuccessResponse
//	@Failure      404  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /contacts/{id} [delete]
func (h *Contact) Delete(w http.ResponseWriter, r *http.Request) {
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
