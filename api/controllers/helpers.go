package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sdfoods/restaurant-backend/api/middleware"
	"github.com/sdfoods/restaurant-backend/api/validators"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/pagination"
)

type actor struct {
	ID   uuid.UUID
	Role enums.UserRole
}

func (a actor) isStaff() bool {
	return a.Role.IsStaff()
}

func actorFromRequest(r *http.Request) (actor, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return actor{ID: id, Role: enums.UserRole(middleware.RoleFromContext(r.Context()))}, nil
}

// optionalActor returns nil for anonymous requests.
func optionalActor(r *http.Request) *actor {
	a, err := actorFromRequest(r)
	if err != nil {
		return nil
	}
	return &a
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

// subjectFor resolves who a request acts for. Callers act as themselves unless
// they supply a different id, which only staff may do.
func subjectFor(a actor, supplied *uuid.UUID) (uuid.UUID, error) {
	if supplied == nil || *supplied == uuid.Nil || *supplied == a.ID {
		return a.ID, nil
	}
	if !a.isStaff() {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot act on behalf of another user").
			WithDetails(map[string]any{"requested": supplied.String()})
	}
	return *supplied, nil
}

// roleFor is the role a request acts under: the caller's own role, or the
// impersonated role when staff act on behalf of someone else.
func roleFor(a actor, subject uuid.UUID, impersonated enums.UserRole) enums.UserRole {
	if subject == a.ID {
		return a.Role
	}
	return impersonated
}

func pageParams(r *http.Request, defaultLimit int) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", defaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

// decodeOptionalBody decodes a JSON body when one was sent.
func decodeOptionalBody(r *http.Request, dest any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return validators.DecodeJSONBody(r, dest)
}
