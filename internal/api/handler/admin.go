package handler

import (
	"net/http"

	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/api/response"
	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
)

// Admin serves user management for administrators. Routes are mounted behind
// the admin gate.
type Admin struct {
	users    *core.UserService
	settings *core.SettingsService
	pub      Publisher
}

func NewAdmin(users *core.UserService, settings *core.SettingsService, pub Publisher) *Admin {
	return &Admin{users: users, settings: settings, pub: pub}
}

type usersResponse struct {
	Users []model.User `json:"users"`
}

type signupModeResponse struct {
	SignupMode model.SignupMode `json:"signup_mode"`
}

// ListUsers returns every account in creation order.
//
//	@Summary      List users
//	@Tags         Admin
//	@Produce      json
//	@Success      200  {object}  usersResponse
//	@Failure      403  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /admin/users [get]
func (h *Admin) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, usersResponse{Users: users})
}

// DeleteUser removes an account and everything it owns.
//
//	@Summary      Delete user
//	@Tags         Admin
//	@Produce      json
//	@Param        id   path      string  true  "User ID"
//	@Success      200  {object}  response.SuccessResponse
//	@Failure      403  {object}  response.ErrorResponse
//	@Failure      404  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /admin/users/{id} [delete]
func (h *Admin) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), actorID, id); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	notifyAll(h.pub, realtime.KeyAdminUsers)
	response.WriteSuccess(w)
}

// SetActive approves or deactivates an account.
//
//	@Summary      Activate or deactivate user
//	@Tags         Admin
//	@Accept       json
//	@Produce      json
//	@Param        id    path      string             true  "User ID"
//	@Param        body  body      request.SetActive  true  "Active flag"
//	@Success      200   {object}  userResponse
//	@Failure      400   {object}  response.ErrorResponse
//	@Failure      403   {object}  response.ErrorResponse
//	@Failure      404   {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /admin/users/{id}/activate [put]
func (h *Admin) SetActive(w http.ResponseWriter, r *http.Request) {
	actorID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.SetActive
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.SetActive(r.Context(), actorID, id, *req.IsActive)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	notify(h.pub, id, realtime.KeyMe)
	notifyAll(h.pub, realtime.KeyAdminUsers)
	response.WriteJSON(w, http.StatusOK, userResponse{User: user})
}

// SetRole changes an account's role.
//
//	@Summary      Change user role
//	@Tags         Admin
//	@Accept       json
//	@Produce      json
//	@Param        id    path      string           true  "User ID"
//	@Param        body  body      request.SetRole  true  "Role"
//	@Success      200   {object}  userResponse
//	@Failure      400   {object}  response.ErrorResponse
//	@Failure      403   {object}  response.ErrorResponse
//	@Failure      404   {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /admin/users/{id}/role [put]
func (h *Admin) SetRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.SetRole
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.SetRole(r.Context(), actorID, id, model.Role(req.Role))
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	notify(h.pub, id, realtime.KeyMe)
	notifyAll(h.pub, realtime.KeyAdminUsers)
	response.WriteJSON(w, http.StatusOK, userResponse{User: user})
}

// SetPassword replaces an account's password without the current one.
//
//	@Summary      Reset user password
//	@Tags         Admin
//	@Accept       json
//	@Produce      json
//	@Param        id    path      string               true  "User ID"
//	@Param        body  body      request.SetPassword  true  "New password"
//	@Success      200   {object}  response.SuccessResponse
//	@Failure      400   {object}  response.ErrorResponse
//	@Failure      404   {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /admin/users/{id}/password [put]
func (h *Admin) SetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req request.SetPassword
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.SetPassword(r.Context(), id, req.NewPassword); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteSuccess(w)
}

// GetSignupMode returns the current signup mode.
//
//	@Summary      Get signup mode
//	@Tags         Admin
//	@Produce      json
//	@Success      200  {object}  signupModeResponse
//	@Security     BearerAuth
//	@Router       /admin/settings/signup-mode [get]
func (h *Admin) GetSignupMode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.settings.SignupMode(r.Context())
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, signupModeResponse{SignupMode: mode})
}

// SetSignupMode switches between open, approval and disabled signups.
//
//	@Summary      Set signup mode
//	@Tags         Admin
//	@Accept       json
//	@Produce      json
//	@Param        body  body      request.SetSignupMode  true  "Signup mode"
//	@Success      200   {object}  signupModeResponse
//	@Failure      400   {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /admin/settings/signup-mode [put]
func (h *Admin) SetSignupMode(w http.ResponseWriter, r *http.Request) {
	var req request.SetSignupMode
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	mode := model.SignupMode(req.SignupMode)
	if err := h.settings.SetSignupMode(r.Context(), mode); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	notifyAll(h.pub, realtime.KeyAdminSignup)
	response.WriteJSON(w, http.StatusOK, signupModeResponse{SignupMode: mode})
}
