package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danbim/application-tracker/internal/config"
	"github.com/danbim/application-tracker/internal/domain"
	"github.com/danbim/application-tracker/internal/events"
	"github.com/danbim/application-tracker/internal/rank"
	"github.com/danbim/application-tracker/internal/store"
)

// ── Fixtures ───────────────────────────────────────────────────────────────

type stubPrefiller struct {
	draft domain.JobOpening
	err   error
}

func (s stubPrefiller) Prefill(_ context.Context, url string) (domain.JobOpening, error) {
	d := s.draft
	d.PostingURL = url
	return d, s.err
}

// tickClock hands out strictly increasing times so date_added ordering is
// deterministic.
type tickClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

type testEnv struct {
	srv  *httptest.Server
	deps Deps
}

func newTestEnv(t *testing.T, mutate func(*Deps)) *testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "tracker.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfgPath := filepath.Join(dir, config.FileName)
	if err := config.SaveAtomic(cfgPath, config.Default()); err != nil {
		t.Fatalf("SaveAtomic: %v", err)
	}
	var cfgVal atomic.Value
	cfgVal.Store(config.Default())

	clock := &tickClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	d := Deps{
		DB:          db.Pool,
		Hub:         events.NewHub(),
		CfgVal:      &cfgVal,
		UserCfgPath: cfgPath,
		LoadCfg:     func() (config.Config, error) { return config.Load(cfgPath) },
		Now:         clock.Now,
	}
	if mutate != nil {
		mutate(&d)
	}
	srv := httptest.NewServer(Handler(NewMux(d)))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, deps: d}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(res.Body)
	return res, buf.Bytes()
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return v
}

func jobBody(title string, ratings map[string]any) map[string]any {
	m := map[string]any{
		"title":       title,
		"company":     "Acme",
		"description": "desc",
	}
	for k, v := range ratings {
		m[k] = v
	}
	return m
}

func (e *testEnv) createJob(t *testing.T, body map[string]any) domain.JobOpening {
	t.Helper()
	res, b := e.do(t, http.MethodPost, "/jobs", body)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create job: %d %s", res.StatusCode, b)
	}
	return decode[savedJob](t, b).Job
}

func (e *testEnv) createFormula(t *testing.T, name string, w domain.Weights) domain.ScoringFormula {
	t.Helper()
	res, b := e.do(t, http.MethodPost, "/formulas", map[string]any{"name": name, "weights": w})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create formula: %d %s", res.StatusCode, b)
	}
	return decode[savedFormula](t, b).Formula
}

// ── Health / routing ───────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	e := newTestEnv(t, nil)
	res, b := e.do(t, http.MethodGet, "/health", nil)
	if res.StatusCode != http.StatusOK || !strings.Contains(string(b), `"ok":true`) {
		t.Fatalf("health: %d %s", res.StatusCode, b)
	}
	if res.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	e := newTestEnv(t, nil)
	res, b := e.do(t, http.MethodPatch, "/jobs", nil)
	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", res.StatusCode)
	}
	apiErr := decode[APIError](t, b)
	if apiErr.Error.Code != "method_not_allowed" || apiErr.Error.RequestID == "" {
		t.Errorf("envelope = %+v", apiErr)
	}
}

// ── Jobs ───────────────────────────────────────────────────────────────────

func TestListWithoutFormulasScoresZero(t *testing.T) {
	e := newTestEnv(t, nil)
	first := e.createJob(t, jobBody("first", map[string]any{"ratingImpact": 1}))
	second := e.createJob(t, jobBody("second", map[string]any{"ratingImpact": -1}))

	res, b := e.do(t, http.MethodGet, "/jobs", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list: %d %s", res.StatusCode, b)
	}
	list := decode[JobList](t, b)
	if list.FormulaID != "" {
		t.Errorf("formulaId = %q", list.FormulaID)
	}
	if len(list.Jobs) != 2 {
		t.Fatalf("got %d jobs", len(list.Jobs))
	}
	// newest first, all zero
	if list.Jobs[0].Job.ID != second.ID || list.Jobs[1].Job.ID != first.ID {
		t.Errorf("order = %s, %s", list.Jobs[0].Job.Title, list.Jobs[1].Job.Title)
	}
	for _, rj := range list.Jobs {
		if rj.Score != 0 {
			t.Errorf("%s score = %d", rj.Job.Title, rj.Score)
		}
	}
}

func TestListRanksByFormula(t *testing.T) {
	e := newTestEnv(t, nil)
	e.createJob(t, jobBody("low", map[string]any{"ratingImpact": -1}))
	e.createJob(t, jobBody("high", map[string]any{"ratingImpact": 1, "wow": true}))
	e.createJob(t, jobBody("mid", map[string]any{"ratingImpact": 0}))

	// "A" sorts first by name so it is the default
	a := e.createFormula(t, "A", domain.Weights{"impact": 3, "wowBoost": 2})
	b := e.createFormula(t, "B", domain.Weights{"impact": -1})

	tests := []struct {
		name      string
		query     string
		formulaID string
		order     []string
		scores    []int
	}{
		{"default", "", a.ID, []string{"high", "mid", "low"}, []int{5, 0, -3}},
		{"by id", "?formula=" + b.ID, b.ID, []string{"low", "mid", "high"}, []int{1, 0, -1}},
		{"by name", "?formula=B", b.ID, []string{"low", "mid", "high"}, []int{1, 0, -1}},
		{"date sort", "?sort=date", a.ID, []string{"mid", "high", "low"}, []int{0, 5, -3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, body := e.do(t, http.MethodGet, "/jobs"+tt.query, nil)
			if res.StatusCode != http.StatusOK {
				t.Fatalf("list: %d %s", res.StatusCode, body)
			}
			list := decode[JobList](t, body)
			if list.FormulaID != tt.formulaID {
				t.Errorf("formulaId = %q, want %q", list.FormulaID, tt.formulaID)
			}
			if len(list.Formulas) != 2 {
				t.Errorf("formulas = %d", len(list.Formulas))
			}
			for i, rj := range list.Jobs {
				if rj.Job.Title != tt.order[i] || rj.Score != tt.scores[i] {
					t.Errorf("[%d] = %s/%d, want %s/%d", i, rj.Job.Title, rj.Score, tt.order[i], tt.scores[i])
				}
			}
		})
	}
}

func TestListDefaultFormulaFromConfig(t *testing.T) {
	e := newTestEnv(t, nil)
	e.createFormula(t, "A", domain.Weights{"impact": 1})
	b := e.createFormula(t, "B", domain.Weights{"impact": 2})

	cfg := config.Default()
	cfg.Ranking.DefaultFormula = "B"
	e.deps.CfgVal.Store(cfg)

	_, body := e.do(t, http.MethodGet, "/jobs", nil)
	if got := decode[JobList](t, body).FormulaID; got != b.ID {
		t.Errorf("formulaId = %q, want %q", got, b.ID)
	}
}

func TestListFilters(t *testing.T) {
	e := newTestEnv(t, nil)
	de := jobBody("de", nil)
	de["country"] = "de"
	e.createJob(t, de)
	us := e.createJob(t, func() map[string]any { m := jobBody("us", nil); m["country"] = "US"; return m }())

	res, b := e.do(t, http.MethodPost, "/jobs/"+us.ID+"/status", map[string]any{"status": "dumped"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status: %d %s", res.StatusCode, b)
	}

	titles := func(query string) []string {
		res, body := e.do(t, http.MethodGet, "/jobs"+query, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("list %s: %d %s", query, res.StatusCode, body)
		}
		var out []string
		for _, rj := range decode[JobList](t, body).Jobs {
			out = append(out, rj.Job.Title)
		}
		return out
	}

	if got := titles(""); len(got) != 1 || got[0] != "de" {
		t.Errorf("active only = %v", got)
	}
	if got := titles("?active=false"); len(got) != 2 {
		t.Errorf("all = %v", got)
	}
	if got := titles("?active=false&country=US"); len(got) != 1 || got[0] != "us" {
		t.Errorf("country = %v", got)
	}
	if got := titles("?active=false&status=dumped"); len(got) != 1 || got[0] != "us" {
		t.Errorf("status = %v", got)
	}

	_, body := e.do(t, http.MethodGet, "/jobs", nil)
	if c := decode[JobList](t, body).Countries; len(c) != 2 || c[0] != "DE" || c[1] != "US" {
		t.Errorf("countries = %v", c)
	}

	for _, q := range []string{"?sort=salary", "?active=maybe", "?status=hired"} {
		if res, _ := e.do(t, http.MethodGet, "/jobs"+q, nil); res.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status %d", q, res.StatusCode)
		}
	}
	if res, _ := e.do(t, http.MethodGet, "/jobs?formula=nope", nil); res.StatusCode != http.StatusNotFound {
		t.Errorf("unknown formula: status %d", res.StatusCode)
	}
}

func TestJobDetailBreakdown(t *testing.T) {
	e := newTestEnv(t, nil)
	j := e.createJob(t, jobBody("x", map[string]any{
		"ratingImpact": 1, "ratingStress": -1, "ratingTech": 0, "wow": true,
	}))
	f := e.createFormula(t, "F", domain.Weights{"impact": 4, "stress": 2, "tech": 9, "wowBoost": 1})

	res, b := e.do(t, http.MethodGet, "/jobs/"+j.ID, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("detail: %d %s", res.StatusCode, b)
	}
	d := decode[JobDetail](t, b)
	if d.FormulaID != f.ID || d.Score != 3 {
		t.Errorf("detail = %+v", d)
	}
	if rank.Total(d.Breakdown) != d.Score {
		t.Errorf("breakdown sums to %d, score %d", rank.Total(d.Breakdown), d.Score)
	}
	if len(d.Breakdown) != 4 {
		t.Errorf("breakdown has %d terms, want 4", len(d.Breakdown))
	}
	if !d.Job.Tech.Valid || d.Job.Compensation.Valid {
		t.Error("zero and unset ratings must stay distinct")
	}

	if res, _ := e.do(t, http.MethodGet, "/jobs/missing", nil); res.StatusCode != http.StatusNotFound {
		t.Errorf("missing job: %d", res.StatusCode)
	}
}

func TestCreateJobValidation(t *testing.T) {
	e := newTestEnv(t, nil)

	res, b := e.do(t, http.MethodPost, "/jobs", map[string]any{"title": "", "company": "Acme", "description": "d", "ratingImpact": 2})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", res.StatusCode)
	}
	vr := decode[domain.Validation](t, b)
	if len(vr.Errors) != 2 {
		t.Errorf("errors = %v", vr.Errors)
	}

	res, _ = e.do(t, http.MethodPost, "/jobs", map[string]any{"title": "t", "bogus": 1})
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown field: %d", res.StatusCode)
	}

	res, b = e.do(t, http.MethodPost, "/jobs", jobBody("unrated", nil))
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %s", res.StatusCode, b)
	}
	if w := decode[savedJob](t, b).Warnings; len(w) != 1 {
		t.Errorf("warnings = %v", w)
	}
}

func TestUpdateStatusDelete(t *testing.T) {
	e := newTestEnv(t, nil)
	j := e.createJob(t, jobBody("before", nil))

	upd := jobBody("after", map[string]any{"ratingGrowth": 1})
	res, b := e.do(t, http.MethodPut, "/jobs/"+j.ID, upd)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("update: %d %s", res.StatusCode, b)
	}
	got := decode[savedJob](t, b).Job
	if got.Title != "after" || got.ID != j.ID || !got.DateAdded.Equal(j.DateAdded) {
		t.Errorf("update = %+v", got)
	}

	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	res, b = e.do(t, http.MethodPost, "/jobs/"+j.ID+"/status", map[string]any{"status": "applied", "at": at})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status: %d %s", res.StatusCode, b)
	}
	st := decode[domain.JobOpening](t, b)
	if st.Status != domain.StatusApplied || st.AppliedAt == nil || !st.AppliedAt.Equal(at) {
		t.Errorf("status = %+v", st)
	}

	if res, _ := e.do(t, http.MethodPost, "/jobs/"+j.ID+"/status", map[string]any{"status": "hired"}); res.StatusCode != http.StatusBadRequest {
		t.Errorf("bad status: %d", res.StatusCode)
	}
	if res, _ := e.do(t, http.MethodPut, "/jobs/missing", upd); res.StatusCode != http.StatusNotFound {
		t.Errorf("update missing: %d", res.StatusCode)
	}

	if res, _ := e.do(t, http.MethodDelete, "/jobs/"+j.ID, nil); res.StatusCode != http.StatusOK {
		t.Errorf("delete: %d", res.StatusCode)
	}
	if res, _ := e.do(t, http.MethodDelete, "/jobs/"+j.ID, nil); res.StatusCode != http.StatusNotFound {
		t.Errorf("second delete: %d", res.StatusCode)
	}
	if res, _ := e.do(t, http.MethodGet, "/jobs/"+j.ID+"/notes", nil); res.StatusCode != http.StatusNotFound {
		t.Errorf("unknown subroute: %d", res.StatusCode)
	}
}

func TestPrefill(t *testing.T) {
	e := newTestEnv(t, func(d *Deps) {
		d.Prefiller = stubPrefiller{draft: domain.JobOpening{Title: "Drafted", Company: "Co"}}
	})
	res, b := e.do(t, http.MethodPost, "/jobs/prefill", map[string]any{"url": " https://jobs.test/1 "})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("prefill: %d %s", res.StatusCode, b)
	}
	d := decode[domain.JobOpening](t, b)
	if d.Title != "Drafted" || d.PostingURL != "https://jobs.test/1" {
		t.Errorf("draft = %+v", d)
	}
	if res, _ := e.do(t, http.MethodPost, "/jobs/prefill", map[string]any{"url": ""}); res.StatusCode != http.StatusBadRequest {
		t.Errorf("empty url: %d", res.StatusCode)
	}

	failing := newTestEnv(t, func(d *Deps) { d.Prefiller = stubPrefiller{err: errors.New("boom")} })
	if res, _ := failing.do(t, http.MethodPost, "/jobs/prefill", map[string]any{"url": "https://x.test"}); res.StatusCode != http.StatusBadGateway {
		t.Errorf("failing prefill: %d", res.StatusCode)
	}

	disabled := newTestEnv(t, nil)
	if res, _ := disabled.do(t, http.MethodPost, "/jobs/prefill", map[string]any{"url": "https://x.test"}); res.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("disabled prefill: %d", res.StatusCode)
	}
}

// ── Formulas ───────────────────────────────────────────────────────────────

func TestFormulaEndpoints(t *testing.T) {
	e := newTestEnv(t, nil)
	f := e.createFormula(t, "Balanced", domain.Weights{"impact": 1})

	if res, _ := e.do(t, http.MethodPost, "/formulas", map[string]any{"name": "Balanced"}); res.StatusCode != http.StatusConflict {
		t.Errorf("duplicate: %d", res.StatusCode)
	}
	res, b := e.do(t, http.MethodPost, "/formulas", map[string]any{"name": "Bad", "weights": map[string]int{"salary": 1}})
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown key: %d", res.StatusCode)
	}
	if vr := decode[domain.Validation](t, b); len(vr.Errors) != 1 {
		t.Errorf("errors = %v", vr.Errors)
	}

	res, b = e.do(t, http.MethodPut, "/formulas/"+f.ID, map[string]any{"name": "Renamed", "weights": map[string]int{"stress": -2}})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("update: %d %s", res.StatusCode, b)
	}
	if got := decode[savedFormula](t, b).Formula; got.Name != "Renamed" || got.Weights["stress"] != -2 {
		t.Errorf("updated = %+v", got)
	}

	res, b = e.do(t, http.MethodGet, "/formulas", nil)
	if fs := decode[[]domain.ScoringFormula](t, b); res.StatusCode != http.StatusOK || len(fs) != 1 {
		t.Errorf("list: %d %s", res.StatusCode, b)
	}
	if res, _ := e.do(t, http.MethodGet, "/formulas/"+f.ID, nil); res.StatusCode != http.StatusOK {
		t.Errorf("get: %d", res.StatusCode)
	}
	if res, _ := e.do(t, http.MethodDelete, "/formulas/"+f.ID, nil); res.StatusCode != http.StatusOK {
		t.Errorf("delete: %d", res.StatusCode)
	}
	if res, _ := e.do(t, http.MethodGet, "/formulas/"+f.ID, nil); res.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted: %d", res.StatusCode)
	}
}

// ── Config / DB / events ───────────────────────────────────────────────────

func TestConfigEndpoints(t *testing.T) {
	e := newTestEnv(t, nil)

	res, b := e.do(t, http.MethodGet, "/config", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get: %d", res.StatusCode)
	}
	cfg := decode[config.Config](t, b)

	cfg.Posting.Burst = 0
	if res, _ := e.do(t, http.MethodPut, "/config", cfg); res.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid put: %d", res.StatusCode)
	}

	cfg.Posting.Burst = 5
	cfg.Ranking.DefaultFormula = "Balanced"
	res, b = e.do(t, http.MethodPut, "/config", cfg)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("put: %d %s", res.StatusCode, b)
	}
	if got := e.deps.CfgVal.Load().(config.Config); got.Posting.Burst != 5 || got.Ranking.DefaultFormula != "Balanced" {
		t.Errorf("stored config = %+v", got)
	}
	onDisk, err := config.Load(e.deps.UserCfgPath)
	if err != nil || onDisk.Posting.Burst != 5 {
		t.Errorf("on disk = %+v, %v", onDisk, err)
	}

	res, b = e.do(t, http.MethodGet, "/config/path", nil)
	if res.StatusCode != http.StatusOK || !strings.Contains(string(b), config.FileName) {
		t.Errorf("path: %d %s", res.StatusCode, b)
	}
	res, b = e.do(t, http.MethodGet, "/config/validate", nil)
	if res.StatusCode != http.StatusOK || !strings.Contains(string(b), `"errors"`) {
		t.Errorf("validate: %d %s", res.StatusCode, b)
	}
}

func TestCheckpointLocalOnly(t *testing.T) {
	e := newTestEnv(t, nil)
	h := DBHandler{DB: e.deps.DB}

	tests := []struct {
		remote string
		want   int
	}{
		{"127.0.0.1:5000", http.StatusNoContent},
		{"[::1]:5000", http.StatusNoContent},
		{"10.0.0.7:5000", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/db/checkpoint", nil)
		req.RemoteAddr = tt.remote
		rec := httptest.NewRecorder()
		h.Checkpoint(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: status %d, want %d", tt.remote, rec.Code, tt.want)
		}
	}
}

func TestShutdownHandler(t *testing.T) {
	srv := &http.Server{}
	h := ShutdownHandler("secret", srv)

	req := httptest.NewRequest(http.MethodPost, "/shutdown", nil)
	req.RemoteAddr = "127.0.0.1:1"
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: %d", rec.Code)
	}

	req.Header.Set("X-Shutdown-Token", "secret")
	req.RemoteAddr = "192.168.1.2:1"
	rec = httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("remote: %d", rec.Code)
	}

	req.RemoteAddr = "127.0.0.1:1"
	rec = httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("ok: %d", rec.Code)
	}
}

func TestEventsStream(t *testing.T) {
	e := newTestEnv(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, e.srv.URL+"/events", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if ct := res.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	sc := bufio.NewScanner(res.Body)
	next := func() events.Event {
		t.Helper()
		for sc.Scan() {
			line := sc.Text()
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				return decode[events.Event](t, []byte(data))
			}
		}
		t.Fatalf("stream ended: %v", sc.Err())
		return events.Event{}
	}

	if ev := next(); ev.Type != events.TypePing {
		t.Fatalf("first event = %q", ev.Type)
	}

	j := e.createJob(t, jobBody("evented", nil))
	ev := next()
	if ev.Type != events.TypeJobCreated {
		t.Fatalf("event = %q", ev.Type)
	}
	var data struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(ev.Data, &data)
	if data.ID != j.ID {
		t.Errorf("event id = %q, want %q", data.ID, j.ID)
	}
	if ev.RequestID == "" {
		t.Error("event without request id")
	}
}
