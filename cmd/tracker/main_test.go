package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danbim/application-tracker/internal/domain"
	"github.com/danbim/application-tracker/internal/rank"
	"github.com/danbim/application-tracker/internal/store"
)

func testEnv(t *testing.T) *env {
	t.Helper()
	e, err := openEnv(&globalFlags{dataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("openEnv: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func addJob(t *testing.T, e *env, title string, added time.Time, set func(*domain.JobOpening)) domain.JobOpening {
	t.Helper()
	j := domain.JobOpening{Title: title, Company: "Acme", Description: "d", DateAdded: added}
	if set != nil {
		set(&j)
	}
	out, err := store.InsertJobOpening(context.Background(), e.db.Pool, j)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

const formulasYAML = `
- name: Growth first
  weights:
    growth: 5
    impact: 2
    stress: -1
    wowBoost: 3
- name: Money
  weights:
    compensation: 4
`

// --- formulas ---

func TestFormulasImport(t *testing.T) {
	e := testEnv(t)
	path := writeFile(t, "formulas.yml", formulasYAML)

	var out, errOut bytes.Buffer
	if err := runFormulasImport(context.Background(), e, path, &out, &errOut); err != nil {
		t.Fatalf("import: %v", err)
	}
	if strings.Count(out.String(), "created ") != 2 {
		t.Errorf("stdout = %q", out.String())
	}
	if !strings.Contains(errOut.String(), "warning: Money") {
		t.Errorf("expected missing-weight warnings, got %q", errOut.String())
	}

	out.Reset()
	if err := runFormulasImport(context.Background(), e, path, &out, &errOut); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if strings.Count(out.String(), "updated ") != 2 {
		t.Errorf("stdout = %q", out.String())
	}

	out.Reset()
	if err := runFormulasList(context.Background(), e, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "name: Growth first") || !strings.Contains(out.String(), "wowBoost: 3") {
		t.Errorf("list = %s", out.String())
	}
}

func TestFormulasImportRejectsBadFile(t *testing.T) {
	e := testEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "- name: X\n  weights:\n    salary: 1\n"},
		{"missing name", "- weights:\n    impact: 1\n"},
		{"duplicate", "- name: X\n- name: X\n"},
		{"not a list", "name: X\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "bad.yml", tt.body)
			err := runFormulasImport(context.Background(), e, path, &bytes.Buffer{}, &bytes.Buffer{})
			var ee *exitErr
			if !errors.As(err, &ee) || ee.code != 2 {
				t.Fatalf("err = %v, want exit code 2", err)
			}
		})
	}

	fs, err := store.ListFormulas(context.Background(), e.db.Pool)
	if err != nil || len(fs) != 0 {
		t.Errorf("nothing should be stored: %v, %v", fs, err)
	}
}

// --- rank ---

func TestRankJSON(t *testing.T) {
	e := testEnv(t)
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	addJob(t, e, "calm", base, func(j *domain.JobOpening) { j.Stress = domain.Rate(-1) })
	addJob(t, e, "growthy", base.Add(time.Hour), func(j *domain.JobOpening) { j.Growth = domain.Rate(1) })
	addJob(t, e, "wow", base.Add(2*time.Hour), func(j *domain.JobOpening) { j.Wow = true })
	if err := runFormulasImport(context.Background(), e, writeFile(t, "f.yml", formulasYAML), &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := runRank(context.Background(), e, &rankFlags{format: "json"}, &buf); err != nil {
		t.Fatalf("rank: %v", err)
	}
	var out struct {
		Formula domain.ScoringFormula   `json:"formula"`
		Jobs    []rank.RankedJobOpening `json:"jobs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Formula.Name != "Growth first" {
		t.Errorf("formula = %q", out.Formula.Name)
	}
	want := []struct {
		title string
		score int
	}{{"growthy", 5}, {"wow", 3}, {"calm", 1}}
	if len(out.Jobs) != len(want) {
		t.Fatalf("got %d jobs", len(out.Jobs))
	}
	for i, w := range want {
		if out.Jobs[i].Job.Title != w.title || out.Jobs[i].Score != w.score {
			t.Errorf("[%d] = %s/%d, want %s/%d", i, out.Jobs[i].Job.Title, out.Jobs[i].Score, w.title, w.score)
		}
	}

	buf.Reset()
	if err := runRank(context.Background(), e, &rankFlags{format: "json", formula: "Money"}, &buf); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	// all zero under Money: newest first
	if out.Jobs[0].Job.Title != "wow" || out.Jobs[2].Job.Title != "calm" {
		t.Errorf("tie order = %s, %s, %s", out.Jobs[0].Job.Title, out.Jobs[1].Job.Title, out.Jobs[2].Job.Title)
	}
}

func TestRankTableWithoutFormulas(t *testing.T) {
	e := testEnv(t)
	addJob(t, e, "only", time.Now(), nil)

	var buf bytes.Buffer
	if err := runRank(context.Background(), e, &rankFlags{format: "table"}, &buf); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	if !strings.Contains(s, "every score is 0") || !strings.Contains(s, "only") {
		t.Errorf("table = %s", s)
	}
}

func TestRankRejectsBadInput(t *testing.T) {
	e := testEnv(t)
	for _, f := range []*rankFlags{
		{format: "csv"},
		{format: "table", status: []string{"hired"}},
		{format: "table", formula: "nope"},
	} {
		err := runRank(context.Background(), e, f, &bytes.Buffer{})
		var ee *exitErr
		if !errors.As(err, &ee) {
			t.Errorf("%+v: err = %v", f, err)
		}
	}
}

// --- score ---

func TestScore(t *testing.T) {
	e := testEnv(t)
	j := addJob(t, e, "explained", time.Now(), func(j *domain.JobOpening) {
		j.Growth = domain.Rate(1)
		j.Stress = domain.Rate(1)
		j.Wow = true
	})

	if err := runScore(context.Background(), e, j.ID, "", "table", &bytes.Buffer{}); err == nil {
		t.Error("expected error without formulas")
	}
	if err := runFormulasImport(context.Background(), e, writeFile(t, "f.yml", formulasYAML), &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := runScore(context.Background(), e, j.ID, "", "json", &buf); err != nil {
		t.Fatal(err)
	}
	var out scoreOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	// growth 5 + stress -1 + wow 3
	if out.Score != 7 || rank.Total(out.Breakdown) != 7 {
		t.Errorf("score = %d, breakdown total = %d", out.Score, rank.Total(out.Breakdown))
	}

	buf.Reset()
	if err := runScore(context.Background(), e, j.ID, "Growth first", "table", &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "total") || !strings.Contains(buf.String(), "7") {
		t.Errorf("table = %s", buf.String())
	}

	if err := runScore(context.Background(), e, "missing", "", "table", &bytes.Buffer{}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing job: %v", err)
	}
}
