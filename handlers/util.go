package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kevinaaaquil/stories/backend/middleware"
	"github.com/kevinaaaquil/stories/backend/service"
)

// SessionHeader names the reader session an auth call applies to.
const SessionHeader = "X-Reader-Session"

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func identityFrom(r *http.Request) service.Identity {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return service.Identity{}
	}
	return service.Identity{UserID: id.Hex(), Email: middleware.EmailFromContext(r.Context())}
}
