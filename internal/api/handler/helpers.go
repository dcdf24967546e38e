package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/edvin/unihub/internal/api/middleware"
	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/api/response"
	"github.com/edvin/unihub/internal/core"
)

// Publisher fans out cache invalidation notices to live clients.
type Publisher interface {
	Publish(userID string, keys ...string)
	Broadcast(keys ...string)
}

// callerID returns the authenticated user's id, or writes 401.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mw.GetIdentity(r.Context())
	if id == nil {
		response.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return id.User.ID, true
}

// caller returns the authenticated identity, or writes 401.
func caller(w http.ResponseWriter, r *http.Request) (*core.Identity, bool) {
	id := mw.GetIdentity(r.Context())
	if id == nil {
		response.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return id, true
}

// pathID reads the {id} URL parameter, or writes 400.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

func notify(p Publisher, userID string, keys ...string) {
	if p != nil {
		p.Publish(userID, keys...)
	}
}

func notifyAll(p Publisher, keys ...string) {
	if p != nil {
		p.Broadcast(keys...)
	}
}
