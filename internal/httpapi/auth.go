package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/liveauction/internal/gateway"
	"github.com/mcdev12/liveauction/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the resolved capability of an authenticated request.
type Identity struct {
	RoomID uuid.UUID
	Role   models.Role
	TeamID *uuid.UUID
}

// IdentityFromContext returns the identity placed by requireRole.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// bearerToken extracts the room token from the Authorization header,
// falling back to the token query parameter.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return token
		}
	}
	return r.URL.Query().Get("token")
}

// requireRole authorizes the request's token against the room in the path
// and rejects it unless the resolved role is in allowed. An empty allowed
// list admits every valid token.
func (s *Server) requireRole(next http.HandlerFunc, allowed ...models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, err := uuid.Parse(r.PathValue("room_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid room id")
			return
		}

		role, teamID, err := s.rooms.Authorize(r.Context(), roomID, bearerToken(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		if len(allowed) > 0 {
			permitted := false
			for _, a := range allowed {
				if role == a {
					permitted = true
					break
				}
			}
			if !permitted {
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
		}

		identity := Identity{RoomID: roomID, Role: role, TeamID: teamID}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	}
}

var _ gateway.Authorizer = (*roomAuthorizer)(nil)

// roomAuthorizer adapts the room service for the websocket handler.
type roomAuthorizer struct {
	rooms RoomService
}

func (a *roomAuthorizer) Authorize(ctx context.Context, roomID uuid.UUID, token string) (models.Role, *uuid.UUID, error) {
	return a.rooms.Authorize(ctx, roomID, token)
}
