package testutil

import (
	"net/http"

	id "marathon/pkg/domain"
	"marathon/pkg/requestcontext"
)

// WithParticipant adds a participant ID to the request context, as the auth
// middleware would for an authenticated request. Invalid IDs are ignored.
func WithParticipant(req *http.Request, participantID string) *http.Request {
	parsed, err := id.ParseParticipantID(participantID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithParticipantID(req.Context(), parsed))
}

// WithAdmin adds a participant ID and the admin role.
func WithAdmin(req *http.Request, participantID string) *http.Request {
	req = WithParticipant(req, participantID)
	return req.WithContext(requestcontext.WithRole(req.Context(), "admin"))
}
