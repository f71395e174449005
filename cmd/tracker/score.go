package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danbim/application-tracker/internal/domain"
	"github.com/danbim/application-tracker/internal/rank"
	"github.com/danbim/application-tracker/internal/store"
)

func newScoreCmd(g *globalFlags) *cobra.Command {
	var formula, format string
	cmd := &cobra.Command{
		Use:   "score <job-id>",
		Short: "Explain one job's score term by term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(g)
			if err != nil {
				return err
			}
			defer e.Close()
			return runScore(cmd.Context(), e, args[0], formula, format, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&formula, "formula", "", "Formula name or ID")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

type scoreOutput struct {
	Job       domain.JobOpening     `json:"job"`
	Formula   domain.ScoringFormula `json:"formula"`
	Score     int                   `json:"score"`
	Breakdown []rank.Contribution   `json:"breakdown"`
}

func runScore(ctx context.Context, e *env, jobID, ref, format string, w io.Writer) error {
	if format != "table" && format != "json" {
		return exitError(2, "unknown --format %q (want table or json)", format)
	}
	j, err := store.GetJobOpening(ctx, e.db.Pool, jobID)
	if err != nil {
		return fmt.Errorf("job %s: %w", jobID, err)
	}
	fm, ok, err := selectFormula(ctx, e, ref)
	if err != nil {
		return err
	}
	if !ok {
		return exitError(2, "no scoring formulas yet; import some with 'tracker formulas import'")
	}

	out := scoreOutput{
		Job:       j,
		Formula:   fm,
		Score:     rank.ComputeScore(j, fm),
		Breakdown: rank.Breakdown(j, fm),
	}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "%s @ %s\nformula: %s\n\n", j.Title, j.Company, fm.Name)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CRITERION\tRATING\tWEIGHT\tPOINTS\t")
	for _, c := range out.Breakdown {
		rating := "-"
		if c.Rating != nil {
			rating = fmt.Sprintf("%+d", *c.Rating)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t\n", c.Label, rating, c.Weight, c.Points)
	}
	fmt.Fprintf(tw, "total\t\t\t%d\t\n", out.Score)
	return tw.Flush()
}
