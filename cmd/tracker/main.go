package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// exitErr carries a process exit code through cobra.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

type globalFlags struct {
	dataDir       string
	defaultConfig string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "tracker",
		Short:         "Track job openings and rank them with weighted scoring formulas",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	dataDir := os.Getenv("TRACKER_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.dataDir, "data-dir", dataDir, "Directory holding tracker.yml and the database (env TRACKER_DATA_DIR)")
	pf.StringVar(&g.defaultConfig, "default-config", "config/tracker.yml", "Config copied into the data dir on first run")

	root.AddCommand(newServeCmd(g))
	root.AddCommand(newRankCmd(g))
	root.AddCommand(newScoreCmd(g))
	root.AddCommand(newFormulasCmd(g))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			stop()
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
