package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/danbim/application-tracker/internal/store"
)

type DBHandler struct {
	DB *sql.DB
}

func (h DBHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	if !isLocalRequest(r) {
		WriteError(w, r, http.StatusForbidden, "forbidden", "checkpoint is only allowed from localhost")
		return
	}

	if err := store.Checkpoint(r.Context(), h.DB); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "checkpoint_failed", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
