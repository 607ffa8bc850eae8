package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cottand/tyck/check"
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/internal/fixture"
	"github.com/cottand/tyck/internal/log"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var ScenarioCmd = &cobra.Command{
	Use:          "scenario " + strings.Join(fixture.Names(), "|"),
	Short:        "Check a canned function and print its permanent tables",
	RunE:         runScenario,
	Args:         cobra.ExactArgs(1),
	ValidArgs:    fixture.Names(),
	SilenceUsage: true,
}

var (
	configPath *string
	logLevel   *int
	dump       *bool
	variances  *bool
)

func init() {
	configPath = ScenarioCmd.Flags().StringP("config", "c", "", "YAML configuration file")
	logLevel = ScenarioCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
	dump = ScenarioCmd.Flags().Bool("dump", false, "dump the permanent tables in full")
	variances = ScenarioCmd.Flags().Bool("variances", false, "relate with declared variances")
}

func runScenario(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))
	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Apply(); err != nil {
		return err
	}

	u := fixture.NewUniverse()
	u.C.VariancesComputed = cfg.VariancesComputed || *variances
	s, ok := fixture.Lookup(u, args[0])
	if !ok {
		return errors.Errorf("unknown scenario %q, expected one of %s", args[0], strings.Join(fixture.Names(), ", "))
	}
	res := fixture.Check(u, s.Unit)

	out := cmd.OutOrStdout()
	PrintResult(out, res)
	if *dump {
		spew.Fdump(out, res.Tables)
	}
	if res.Err != nil {
		return errors.Wrapf(res.Err, "scenario %s", s.Name)
	}
	if len(res.Errors()) > 0 {
		return errors.Errorf("scenario %s: %d errors", s.Name, len(res.Errors()))
	}
	return nil
}

// PrintResult writes the errors and permanent tables of res, one entry per line
func PrintResult(w io.Writer, res *fixture.Result) {
	for _, err := range res.Errors() {
		_, _ = fmt.Fprintln(w, "error:", ilerr.FormatWithCode(err))
	}
	t := res.Tables
	_, _ = fmt.Fprintln(w, "node types:")
	for _, e := range check.Entries(t.NodeTypes) {
		_, _ = fmt.Fprintf(w, "  #%d: %v\n", e.Key, e.Value)
	}
	section(w, "adjustments", check.Entries(t.Adjustments))
	section(w, "methods", check.Entries(t.MethodMap))
	section(w, "item substs", check.Entries(t.ItemSubsts))
	if t.UpvarCaptures.Len() > 0 {
		_, _ = fmt.Fprintln(w, "upvar captures:")
		for _, e := range check.Entries(t.UpvarCaptures) {
			_, _ = fmt.Fprintf(w, "  %v: by-ref=%t %v\n", e.Key, e.Value.ByRef, e.Value.Region)
		}
	}
	section(w, "closure types", check.Entries(t.ClosureTys))
	section(w, "closure kinds", check.Entries(t.ClosureKinds))
}

func section[K, V any](w io.Writer, title string, entries []check.Entry[K, V]) {
	if len(entries) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, title+":")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "  %v: %v\n", e.Key, e.Value)
	}
}
