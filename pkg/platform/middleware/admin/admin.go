package admin

import (
	"log/slog"
	"net/http"

	request "marathon/pkg/platform/middleware/request"
	"marathon/pkg/requestcontext"
)

// RoleAdmin is the role claim carried by organiser accounts.
const RoleAdmin = "admin"

// RequireAdmin rejects callers whose verified role is not admin.
// Must run after auth.RequireAuth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.Role(ctx) != RoleAdmin {
				logger.WarnContext(ctx, "admin role required",
					"participant_id", requestcontext.ParticipantID(ctx).String(),
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin role required"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
