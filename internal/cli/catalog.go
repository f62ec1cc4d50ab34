package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/ctfmeta/internal/store"
)

// CatalogOptions holds flags shared by the catalog subcommands.
type CatalogOptions struct {
	*RootOptions
	Catalog string
	Trace   string // fingerprint prefix filter for events
}

// NewCatalogCommand creates the catalog command and its subcommands.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect traces recorded by compile --catalog",
		Long: `Inspect the SQLite catalog of compiled traces.

Examples:
  ctfmeta catalog list --catalog traces.db
  ctfmeta catalog show 3f2a --catalog traces.db
  ctfmeta catalog events sched_switch --catalog traces.db`,
	}

	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "path to SQLite catalog (required)")
	_ = cmd.MarkPersistentFlagRequired("catalog")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List catalogued traces",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogList(opts, cmd)
		},
	}

	show := &cobra.Command{
		Use:           "show <fingerprint>",
		Short:         "Show one trace by fingerprint or unique prefix",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogShow(opts, args[0], cmd)
		},
	}

	events := &cobra.Command{
		Use:           "events <name>",
		Short:         "Find event classes by name across traces",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogEvents(opts, args[0], cmd)
		},
	}
	events.Flags().StringVar(&opts.Trace, "trace", "", "restrict to one trace (fingerprint or prefix)")

	cmd.AddCommand(list, show, events)
	return cmd
}

func openCatalog(opts *CatalogOptions, formatter *OutputFormatter) (*store.Store, error) {
	st, err := store.Open(opts.Catalog)
	if err != nil {
		return nil, formatter.Fail(ErrCodeCatalog, fmt.Sprintf("failed to open catalog: %v", err), nil)
	}
	return st, nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runCatalogList(opts *CatalogOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	st, err := openCatalog(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	traces, err := st.ListTraces(contextOf(cmd))
	if err != nil {
		return formatter.Fail(ErrCodeCatalog, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(traces)
	}
	if len(traces) == 0 {
		fmt.Fprintln(formatter.Writer, "No traces catalogued")
		return nil
	}
	for _, t := range traces {
		version := t.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(formatter.Writer, "%4d  %s  %s  v%s  %d stream(s), %d event(s)  %s\n",
			t.Seq, short(t.Fingerprint), t.ByteOrder, version, t.Streams, t.Events, t.Source)
	}
	return nil
}

// resolve expands a fingerprint prefix, reporting misses and ambiguity.
func resolve(ctx context.Context, st *store.Store, prefix string, formatter *OutputFormatter) (string, error) {
	fp, err := st.ResolveFingerprint(ctx, prefix)
	switch {
	case err == nil:
		return fp, nil
	case errors.Is(err, sql.ErrNoRows):
		return "", formatter.Fail(ErrCodeTraceMissing, fmt.Sprintf("no trace matches %q", prefix), nil)
	case errors.Is(err, store.ErrAmbiguousFingerprint):
		return "", formatter.Fail(ErrCodeAmbiguous, fmt.Sprintf("%q matches several traces", prefix), nil)
	default:
		return "", formatter.Fail(ErrCodeCatalog, err.Error(), nil)
	}
}

// TraceView is the JSON payload of catalog show.
type TraceView struct {
	store.TraceSummary
	Environment map[string]string   `json:"environment"`
	Clocks      []store.ClockRecord `json:"clocks"`
	Document    json.RawMessage     `json:"document"`
}

func runCatalogShow(opts *CatalogOptions, prefix string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	st, err := openCatalog(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := contextOf(cmd)
	fp, err := resolve(ctx, st, prefix, formatter)
	if err != nil {
		return err
	}
	rec, err := st.ReadTrace(ctx, fp)
	if err != nil {
		return formatter.Fail(ErrCodeCatalog, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(TraceView{
			TraceSummary: rec.TraceSummary,
			Environment:  rec.Environment,
			Clocks:       rec.Clocks,
			Document:     json.RawMessage(rec.Document),
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Trace %s\n", rec.Fingerprint)
	fmt.Fprintf(w, "  source:     %s\n", rec.Source)
	fmt.Fprintf(w, "  byte order: %s\n", rec.ByteOrder)
	if rec.Version != "" {
		fmt.Fprintf(w, "  version:    %s\n", rec.Version)
	}
	if rec.UUID != "" {
		fmt.Fprintf(w, "  uuid:       %s\n", rec.UUID)
	}
	fmt.Fprintf(w, "  streams:    %d\n", rec.Streams)
	fmt.Fprintf(w, "  events:     %d\n", rec.Events)

	if len(rec.Clocks) > 0 {
		fmt.Fprintln(w, "\nClocks:")
		for _, c := range rec.Clocks {
			fmt.Fprintf(w, "  %s: freq=%d offset_s=%d offset=%d\n",
				c.Name, c.Frequency, c.OffsetSeconds, c.Offset)
		}
	}
	if len(rec.Environment) > 0 {
		fmt.Fprintln(w, "\nEnvironment:")
		keys := make([]string, 0, len(rec.Environment))
		for k := range rec.Environment {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s = %s\n", k, rec.Environment[k])
		}
	}
	return nil
}

func runCatalogEvents(opts *CatalogOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	st, err := openCatalog(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := contextOf(cmd)
	fp := ""
	if opts.Trace != "" {
		if fp, err = resolve(ctx, st, opts.Trace, formatter); err != nil {
			return err
		}
	}

	events, err := st.FindEvents(ctx, fp, name)
	if err != nil {
		return formatter.Fail(ErrCodeCatalog, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(events)
	}
	if len(events) == 0 {
		fmt.Fprintf(formatter.Writer, "No event named %s\n", name)
		return nil
	}
	for _, e := range events {
		fmt.Fprintf(formatter.Writer, "%s  stream %s  id %s\n",
			short(e.Fingerprint), optional(e.StreamID), optional(e.ID))
	}
	return nil
}

func optional(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

// short abbreviates a fingerprint for text listings.
func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
