package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/danbim/application-tracker/internal/domain"
	"github.com/danbim/application-tracker/internal/store"
)

func newFormulasCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formulas",
		Short: "Manage scoring formulas",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.yml>",
		Short: "Create or update formulas from a YAML list, matched by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(g)
			if err != nil {
				return err
			}
			defer e.Close()
			return runFormulasImport(cmd.Context(), e, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List formulas as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(g)
			if err != nil {
				return err
			}
			defer e.Close()
			return runFormulasList(cmd.Context(), e, cmd.OutOrStdout())
		},
	})
	return cmd
}

// loadFormulasFile reads a YAML list of {name, weights}. Every entry is
// validated before anything is written.
func loadFormulasFile(path string, stderr io.Writer) ([]domain.ScoringFormula, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fs []domain.ScoringFormula
	if err := yaml.Unmarshal(b, &fs); err != nil {
		return nil, exitError(2, "%s: %v", path, err)
	}

	var problems []string
	seen := map[string]bool{}
	for i := range fs {
		fs[i] = domain.NormalizeFormula(fs[i])
		fs[i].ID = ""
		vr := domain.ValidateFormula(fs[i])
		for _, msg := range vr.Errors {
			problems = append(problems, fmt.Sprintf("[%d] %s: %s", i, fs[i].Name, msg))
		}
		for _, msg := range vr.Warnings {
			fmt.Fprintf(stderr, "warning: %s: %s\n", fs[i].Name, msg)
		}
		if fs[i].Name != "" && seen[fs[i].Name] {
			problems = append(problems, fmt.Sprintf("[%d] %s: duplicate name in file", i, fs[i].Name))
		}
		seen[fs[i].Name] = true
	}
	if len(problems) > 0 {
		return nil, exitError(2, "%s is invalid:\n- %s", path, strings.Join(problems, "\n- "))
	}
	return fs, nil
}

func runFormulasImport(ctx context.Context, e *env, path string, stdout, stderr io.Writer) error {
	fs, err := loadFormulasFile(path, stderr)
	if err != nil {
		return err
	}
	for _, f := range fs {
		out, created, err := store.UpsertFormulaByName(ctx, e.db.Pool, f)
		if err != nil {
			return fmt.Errorf("import %q: %w", f.Name, err)
		}
		verb := "updated"
		if created {
			verb = "created"
		}
		fmt.Fprintf(stdout, "%s %s (%s)\n", verb, out.Name, out.ID)
	}
	return nil
}

func runFormulasList(ctx context.Context, e *env, w io.Writer) error {
	fs, err := store.ListFormulas(ctx, e.db.Pool)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fs); err != nil {
		return err
	}
	return enc.Close()
}
