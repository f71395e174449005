package httpapi

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"
)

func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ShutdownHandler stops srv when called from localhost with the right
// X-Shutdown-Token. The response is written before shutdown starts.
func ShutdownHandler(token string, srv *http.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		if !isLocalRequest(r) {
			WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
			return
		}
		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			WriteError(w, r, http.StatusUnauthorized, "unauthorized", "bad shutdown token")
			return
		}

		writeJSON(w, map[string]any{"ok": true, "shutting_down": true})

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}
}
