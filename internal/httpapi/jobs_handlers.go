package httpapi

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danbim/application-tracker/internal/domain"
	"github.com/danbim/application-tracker/internal/events"
	"github.com/danbim/application-tracker/internal/rank"
	"github.com/danbim/application-tracker/internal/store"
)

type JobsHandler struct {
	Deps
}

// JobList is the ranked list view.
type JobList struct {
	FormulaID string                  `json:"formulaId,omitempty"`
	Formulas  []FormulaRef            `json:"formulas"`
	Countries []string                `json:"countries"`
	Jobs      []rank.RankedJobOpening `json:"jobs"`
}

type FormulaRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// JobDetail is one job with its score under the selected formula.
type JobDetail struct {
	Job       domain.JobOpening   `json:"job"`
	FormulaID string              `json:"formulaId,omitempty"`
	Score     int                 `json:"score"`
	Breakdown []rank.Contribution `json:"breakdown"`
}

type savedJob struct {
	Job      domain.JobOpening `json:"job"`
	Warnings []string          `json:"warnings"`
}

func parseStatuses(raw string) ([]domain.Status, error) {
	var out []domain.Status
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "all" {
			continue
		}
		s, err := domain.ParseStatus(part)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cfg := h.config()

	statuses, err := parseStatuses(q.Get("status"))
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_status", err.Error())
		return
	}
	activeOnly := cfg.Ranking.ActiveOnly
	if v := q.Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, "bad_active", "active must be true or false")
			return
		}
		activeOnly = b
	}
	sortBy := q.Get("sort")
	if sortBy != "" && sortBy != "score" && sortBy != "date" {
		WriteError(w, r, http.StatusBadRequest, "bad_sort", "sort must be score or date")
		return
	}

	var (
		jobs      []domain.JobOpening
		formulas  []domain.ScoringFormula
		countries []string
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		jobs, err = store.ListJobOpenings(ctx, h.DB, store.ListJobsOpts{
			Statuses:   statuses,
			ActiveOnly: activeOnly,
			Country:    q.Get("country"),
		})
		return err
	})
	g.Go(func() error {
		var err error
		formulas, err = store.ListFormulas(ctx, h.DB)
		return err
	})
	g.Go(func() error {
		var err error
		countries, err = store.Countries(ctx, h.DB)
		return err
	})
	if err := g.Wait(); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	f, ok, err := rank.PickFormula(formulas, q.Get("formula"), cfg.Ranking.DefaultFormula)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "formula_not_found", "formula not found: "+q.Get("formula"))
		return
	}

	if countries == nil {
		countries = []string{}
	}
	out := JobList{Formulas: make([]FormulaRef, 0, len(formulas)), Countries: countries}
	for _, fm := range formulas {
		out.Formulas = append(out.Formulas, FormulaRef{ID: fm.ID, Name: fm.Name})
	}
	if ok {
		out.FormulaID = f.ID
		out.Jobs = rank.RankJobOpenings(jobs, f)
	} else {
		out.Jobs = rank.Unscored(jobs)
	}
	if sortBy == "date" {
		rank.SortByDateAdded(out.Jobs)
	}
	writeJSON(w, out)
}

func (h JobsHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	j, err := store.GetJobOpening(r.Context(), h.DB, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	formulas, err := store.ListFormulas(r.Context(), h.DB)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	ref := r.URL.Query().Get("formula")
	f, ok, err := rank.PickFormula(formulas, ref, h.config().Ranking.DefaultFormula)
	if err != nil {
		WriteError(w, r, http.StatusNotFound, "formula_not_found", "formula not found: "+ref)
		return
	}

	out := JobDetail{Job: j, Breakdown: []rank.Contribution{}}
	if ok {
		out.FormulaID = f.ID
		out.Score = rank.ComputeScore(j, f)
		if bd := rank.Breakdown(j, f); bd != nil {
			out.Breakdown = bd
		}
	}
	writeJSON(w, out)
}

func (h JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.JobOpening
	if err := decodeBody(r, &in); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	in = domain.NormalizeJobOpening(in)
	vr := domain.ValidateJobOpening(in)
	if !vr.OK() {
		writeValidation(w, vr)
		return
	}
	if in.DateAdded.IsZero() {
		in.DateAdded = h.now().UTC()
	}

	j, err := store.InsertJobOpening(r.Context(), h.DB, in)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.TypeJobCreated, map[string]any{"id": j.ID})
	WriteJSON(w, http.StatusCreated, savedJob{Job: j, Warnings: nonNil(vr.Warnings)})
}

func (h JobsHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var in domain.JobOpening
	if err := decodeBody(r, &in); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	in.ID = id
	in = domain.NormalizeJobOpening(in)
	vr := domain.ValidateJobOpening(in)
	if !vr.OK() {
		writeValidation(w, vr)
		return
	}

	j, err := store.UpdateJobOpening(r.Context(), h.DB, in)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.TypeJobUpdated, map[string]any{"id": j.ID})
	writeJSON(w, savedJob{Job: j, Warnings: nonNil(vr.Warnings)})
}

func (h JobsHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := store.DeleteJobOpening(r.Context(), h.DB, id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.TypeJobDeleted, map[string]any{"id": id})
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

type statusRequest struct {
	Status string     `json:"status"`
	At     *time.Time `json:"at,omitempty"`
}

// SetStatus moves a job to a new status and stamps the matching timestamp.
func (h JobsHandler) SetStatus(w http.ResponseWriter, r *http.Request, id string) {
	var in statusRequest
	if err := decodeBody(r, &in); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	s, err := domain.ParseStatus(in.Status)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_status", err.Error())
		return
	}
	at := h.now()
	if in.At != nil {
		at = *in.At
	}

	j, err := store.SetJobStatus(r.Context(), h.DB, id, s, at)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	h.Hub.Emit(RequestIDFrom(r.Context()), events.TypeJobUpdated, map[string]any{"id": j.ID, "status": j.Status})
	writeJSON(w, j)
}

type prefillRequest struct {
	URL string `json:"url"`
}

// Prefill fetches a posting page and returns an unsaved draft.
func (h JobsHandler) Prefill(w http.ResponseWriter, r *http.Request) {
	if h.Prefiller == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "prefill_disabled", "posting prefill is not configured")
		return
	}
	var in prefillRequest
	if err := decodeBody(r, &in); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	if strings.TrimSpace(in.URL) == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_url", "url is required")
		return
	}

	draft, err := h.Prefiller.Prefill(r.Context(), strings.TrimSpace(in.URL))
	if err != nil {
		log.Printf("level=warn msg=\"prefill failed\" request_id=%s url=%q err=%v", RequestIDFrom(r.Context()), in.URL, err)
		WriteError(w, r, http.StatusBadGateway, "prefill_failed", err.Error())
		return
	}
	writeJSON(w, draft)
}

// ByPath dispatches /jobs/{id} and /jobs/{id}/status.
func (h JobsHandler) ByPath(w http.ResponseWriter, r *http.Request) {
	seg := pathSegments(r.URL.Path, "/jobs/")
	switch {
	case len(seg) == 1:
		id := seg[0]
		methodMux(map[string]http.HandlerFunc{
			http.MethodGet:    func(w http.ResponseWriter, r *http.Request) { h.Get(w, r, id) },
			http.MethodPut:    func(w http.ResponseWriter, r *http.Request) { h.Update(w, r, id) },
			http.MethodDelete: func(w http.ResponseWriter, r *http.Request) { h.Delete(w, r, id) },
		})(w, r)
	case len(seg) == 2 && seg[1] == "status":
		id := seg[0]
		methodMux(map[string]http.HandlerFunc{
			http.MethodPost: func(w http.ResponseWriter, r *http.Request) { h.SetStatus(w, r, id) },
		})(w, r)
	default:
		WriteError(w, r, http.StatusNotFound, "not_found", "no such route")
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
