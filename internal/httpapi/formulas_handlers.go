package httpapi

import (
	"net/http"

	"github.com/danbim/application-tracker/internal/domain"
	"github.com/danbim/application-tracker/internal/events"
	"github.com/danbim/application-tracker/internal/store"
)

type FormulasHandler struct {
	Deps
}

type savedFormula struct {
	Formula  domain.ScoringFormula `json:"formula"`
	Warnings []string              `json:"warnings"`
}

func (h FormulasHandler) List(w http.ResponseWriter, r *http.Request) {
	fs, err := store.ListFormulas(r.Context(), h.DB)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, fs)
}

func (h FormulasHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	f, err := store.GetFormula(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, f)
}

// decodeFormula reads and validates a formula body. It writes the response
// itself and returns ok=false when the body is unusable.
func (h FormulasHandler) decodeFormula(w http.ResponseWriter, r *http.Request) (domain.ScoringFormula, domain.Validation, bool) {
	var in domain.ScoringFormula
	if err := decodeBody(r, &in); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", err.Error())
		return in, domain.Validation{}, false
	}
	in = domain.NormalizeFormula(in)
	vr := domain.ValidateFormula(in)
	if !vr.OK() {
		writeValidation(w, vr)
		return in, vr, false
	}
	return in, vr, true
}

func (h FormulasHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, vr, ok := h.decodeFormula(w, r)
	if !ok {
		return
	}
	f, err := store.InsertFormula(r.Context(), h.DB, in)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.TypeFormulaCreated, map[string]any{"id": f.ID})
	WriteJSON(w, http.StatusCreated, savedFormula{Formula: f, Warnings: nonNil(vr.Warnings)})
}

func (h FormulasHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	in, vr, ok := h.decodeFormula(w, r)
	if !ok {
		return
	}
	in.ID = id
	f, err := store.UpdateFormula(r.Context(), h.DB, in)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.TypeFormulaUpdated, map[string]any{"id": f.ID})
	writeJSON(w, savedFormula{Formula: f, Warnings: nonNil(vr.Warnings)})
}

func (h FormulasHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := store.DeleteFormula(r.Context(), h.DB, id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.TypeFormulaDeleted, map[string]any{"id": id})
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

// ByPath dispatches /formulas/{id}.
func (h FormulasHandler) ByPath(w http.ResponseWriter, r *http.Request) {
	seg := pathSegments(r.URL.Path, "/formulas/")
	if len(seg) != 1 {
		WriteError(w, r, http.StatusNotFound, "not_found", "no such route")
		return
	}
	id := seg[0]
	methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    func(w http.ResponseWriter, r *http.Request) { h.Get(w, r, id) },
		http.MethodPut:    func(w http.ResponseWriter, r *http.Request) { h.Update(w, r, id) },
		http.MethodDelete: func(w http.ResponseWriter, r *http.Request) { h.Delete(w, r, id) },
	})(w, r)
}
