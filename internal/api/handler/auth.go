package handler

import (
	"net/http"

	mw "github.com/edvin/unihub/internal/api/middleware"
	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/api/response"
	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
)

type Auth struct {
	auth  *core.AuthService
	users *core.UserService
	pub   Publisher
}

func NewAuth(auth *core.AuthService, users *core.UserService, pub Publisher) *Auth {
	return &Auth{auth: auth, users: users, pub: pub}
}

type userResponse struct {
	User *model.User `json:"user"`
}

// SignUp registers an account and returns a token for it.
//
//	@Summary      Sign up
//	@Description  Create an account. Depending on the signup mode the account starts active, pending approval, or signups are refused.
//	@Tags         Authentication
//	@Accept       json
//	@Produce      json
//	@Param        body  body      request.SignUp  true  "Credentials"
//	@Success      201   {object}  core.Session
//	@Failure      400   {object}  response.ErrorResponse
//	@Failure      403   {object}  response.ErrorResponse
//	@Failure      409   {object}  response.ErrorResponse
//	@Router       /auth/signup [post]
func (h *Auth) SignUp(w http.ResponseWriter, r *http.Request) {
	var req request.SignUp
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.auth.SignUp(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	notifyAll(h.pub, realtime.KeyAdminUsers)
	response.WriteJSON(w, http.StatusCreated, session)
}

// SignIn exchanges credentials for a token.
//
//	@Summary      Sign in
//	@Tags         Authentication
//	@Accept       json
//	@Produce      json
//	@Param        body  body      request.SignIn  true  "Credentials"
//	@Success      200   {object}  core.Session
//	@Failure      400   {object}  response.ErrorResponse
//	@Failure      401   {object}  response.ErrorResponse
//	@Router       /auth/signin [post]
func (h *Auth) SignIn(w http.ResponseWriter, r *http.Request) {
	var req request.SignIn
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, session)
}

// SignOut revokes the presented token. It succeeds without a token.
//
//	@Summary      Sign out
//	@Tags         Authentication
//	@Produce      json
//	@Success      200  {object}  response.SuccessResponse
//	@Router       /auth/signout [post]
func (h *Auth) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), mw.GetIdentity(r.Context())); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteSuccess(w)
}

// Me returns the caller's profile, including accounts pending approval.
//
//	@Summary      Current user
//	@Tags         Profile
//	@Produce      json
//	@Success      200  {object}  userResponse
//	@Failure      401  {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /auth/me [get]
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	response.WriteJSON(w, http.StatusOK, userResponse{User: id.User})
}

// UpdateMe changes the caller's display name or avatar URL.
//
//	@Summary      Update profile
//	@Tags         Profile
//	@Accept       json
//	@Produce      json
//	@Param        body  body      request.UpdateProfile  true  "Fields to change"
//	@Success      200   {object}  userResponse
//	@Failure      400   {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /auth/me [put]
func (h *Auth) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req request.UpdateProfile
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, req.FullName, req.AvatarURL)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	notify(h.pub, userID, realtime.KeyMe)
	response.WriteJSON(w, http.StatusOK, userResponse{User: user})
}

// ChangePassword replaces the caller's password after checking the current one.
//
//	@Summary      Change password
//	@Tags         Profile
//	@Accept       json
//	@Produce      json
//	@Param        body  body      request.ChangePassword  true  "Current and new password"
//	@Success      200   {object}  response.SuccessResponse
//	@Failure      400   {object}  response.ErrorResponse
//	@Security     BearerAuth
//	@Router       /auth/me/password [put]
func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req request.ChangePassword
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	response.WriteSuccess(w)
}
