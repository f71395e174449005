package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danbim/application-tracker/internal/domain"
	"github.com/danbim/application-tracker/internal/rank"
	"github.com/danbim/application-tracker/internal/store"
)

type rankFlags struct {
	formula string
	country string
	status  []string
	all     bool
	format  string
}

func newRankCmd(g *globalFlags) *cobra.Command {
	f := &rankFlags{}
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print job openings ranked by a scoring formula",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(g)
			if err != nil {
				return err
			}
			defer e.Close()
			return runRank(cmd.Context(), e, f, cmd.OutOrStdout())
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.formula, "formula", "", "Formula name or ID (default: ranking.default_formula, then first by name)")
	flags.StringVar(&f.country, "country", "", "Only jobs in this country (ISO alpha-2)")
	flags.StringSliceVar(&f.status, "status", nil, "Only jobs with these statuses (may be repeated)")
	flags.BoolVar(&f.all, "all", false, "Include rejected, ghosted and dumped jobs")
	flags.StringVar(&f.format, "format", "table", "Output format: table or json")
	return cmd
}

type rankOutput struct {
	Formula *domain.ScoringFormula  `json:"formula,omitempty"`
	Jobs    []rank.RankedJobOpening `json:"jobs"`
}

func runRank(ctx context.Context, e *env, f *rankFlags, w io.Writer) error {
	if f.format != "table" && f.format != "json" {
		return exitError(2, "unknown --format %q (want table or json)", f.format)
	}
	var statuses []domain.Status
	for _, s := range f.status {
		st, err := domain.ParseStatus(s)
		if err != nil {
			return exitError(2, "%v", err)
		}
		statuses = append(statuses, st)
	}

	jobs, err := store.ListJobOpenings(ctx, e.db.Pool, store.ListJobsOpts{
		Statuses:   statuses,
		ActiveOnly: e.cfg.Ranking.ActiveOnly && !f.all,
		Country:    f.country,
	})
	if err != nil {
		return err
	}
	fm, ok, err := selectFormula(ctx, e, f.formula)
	if err != nil {
		return err
	}

	var out rankOutput
	if ok {
		out.Formula = &fm
		out.Jobs = rank.RankJobOpenings(jobs, fm)
	} else {
		out.Jobs = rank.Unscored(jobs)
	}

	if f.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return writeRankTable(w, out)
}

func selectFormula(ctx context.Context, e *env, ref string) (domain.ScoringFormula, bool, error) {
	fs, err := store.ListFormulas(ctx, e.db.Pool)
	if err != nil {
		return domain.ScoringFormula{}, false, err
	}
	fm, ok, err := rank.PickFormula(fs, ref, e.cfg.Ranking.DefaultFormula)
	if err != nil {
		return fm, false, exitError(2, "formula %q not found", ref)
	}
	return fm, ok, nil
}

func writeRankTable(w io.Writer, out rankOutput) error {
	if out.Formula != nil {
		fmt.Fprintf(w, "formula: %s\n\n", out.Formula.Name)
	} else {
		fmt.Fprintln(w, "no scoring formulas yet; every score is 0")
		fmt.Fprintln(w)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSCORE\tTITLE\tCOMPANY\tCOUNTRY\tSTATUS\tID")
	for i, rj := range out.Jobs {
		title := rj.Job.Title
		if rj.Job.Wow {
			title += " *"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, rj.Score, truncate(title, 48), truncate(rj.Job.Company, 32),
			dash(rj.Job.Country), rj.Job.Status, rj.Job.ID)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
