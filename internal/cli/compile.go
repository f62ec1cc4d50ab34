package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ctfmeta/internal/ast"
	"github.com/roach88/ctfmeta/internal/ctf"
	"github.com/roach88/ctfmeta/internal/metadata"
	"github.com/roach88/ctfmeta/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Config    string // CUE config file
	ByteOrder string
	UUID      string
	Catalog   string // SQLite catalog to record the trace in
	Output    string // output file path
}

// CompileSummary describes one compiled trace.
type CompileSummary struct {
	Source      string   `json:"source"`
	Fingerprint string   `json:"fingerprint"`
	ByteOrder   string   `json:"byte_order"`
	Version     string   `json:"version,omitempty"`
	UUID        string   `json:"uuid,omitempty"`
	Streams     int      `json:"streams"`
	Events      int      `json:"events"`
	Clocks      []string `json:"clocks"`
	Output      string   `json:"output,omitempty"`
	Catalog     string   `json:"catalog,omitempty"`
	Inserted    bool     `json:"inserted,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <ast-file>",
		Short: "Compile a metadata syntax tree to canonical JSON",
		Long: `Compile the syntax tree of a CTF metadata document.

The tree is read in its YAML (or JSON) serialized form. Byte order and UUID
seeds normally come from the first packet of the trace; pass them with
--byte-order and --uuid, or through a CUE config file. Flags override the
config file.

Examples:
  ctfmeta compile metadata.yaml
  ctfmeta compile metadata.yaml --byte-order le -o trace.json
  ctfmeta compile metadata.yaml --config ctfmeta.cue --catalog traces.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(contextOf(cmd), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "CUE config file")
	cmd.Flags().StringVar(&opts.ByteOrder, "byte-order", "", "trace byte order seed (le|be)")
	cmd.Flags().StringVar(&opts.UUID, "uuid", "", "trace UUID seed")
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "SQLite catalog to record the trace in")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := resolveConfig(opts.Config, opts.ByteOrder, opts.UUID, opts.Catalog)
	if err != nil {
		return failConfig(formatter, err)
	}
	genOpts, err := cfg.Options()
	if err != nil {
		return formatter.Fail(ErrCodeInvalidFlag, err.Error(), nil)
	}
	genOpts.Logger = newLogger(opts.RootOptions, formatter.GetErrWriter())

	trace, err := compileFile(path, genOpts, formatter)
	if err != nil {
		return err
	}

	doc, err := ctf.Canonical(trace)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err.Error(), nil)
	}
	fingerprint, err := ctf.Fingerprint(trace)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err.Error(), nil)
	}

	summary := summarize(path, fingerprint, trace)

	if opts.Output != "" {
		if err := writeDocument(doc, opts.Output); err != nil {
			return formatter.Fail(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		summary.Output = opts.Output
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	if cfg.Catalog != "" {
		inserted, err := record(ctx, cfg.Catalog, path, trace)
		if err != nil {
			return formatter.Fail(ErrCodeCatalog, err.Error(), nil)
		}
		summary.Catalog = cfg.Catalog
		summary.Inserted = inserted
	}

	return outputCompileSuccess(formatter, summary, doc)
}

// resolveConfig loads the optional config file and lets non-empty flag values
// override it.
func resolveConfig(path, byteOrder, id, catalog string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if byteOrder != "" {
		cfg.ByteOrder = byteOrder
	}
	if id != "" {
		cfg.UUID = id
	}
	if catalog != "" {
		cfg.Catalog = catalog
	}
	return cfg, nil
}

func failConfig(formatter *OutputFormatter, err error) error {
	var ce *ConfigError
	if errors.As(err, &ce) && ce.Pos.IsValid() {
		details := map[string]any{
			"file":   ce.Pos.Filename(),
			"line":   ce.Pos.Line(),
			"column": ce.Pos.Column(),
		}
		return formatter.Fail(ErrCodeConfig, ce.Message, details)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return formatter.Fail(ErrCodeNotFound, err.Error(), nil)
	}
	return formatter.Fail(ErrCodeConfig, err.Error(), nil)
}

// compileFile loads the syntax tree at path and runs the generator over it.
// Failures are reported through formatter.
func compileFile(path string, opts metadata.Options, formatter *OutputFormatter) (*ctf.Trace, error) {
	root, err := ast.LoadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, formatter.Fail(ErrCodeNotFound, fmt.Sprintf("AST file not found: %s", path), nil)
		}
		return nil, formatter.Fail(ErrCodeLoadFailed, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %s", path)

	trace, err := metadata.Generate(root, opts)
	if err != nil {
		return nil, formatter.Fail(ErrCodeMetadata, err.Error(), parseErrorDetails(err))
	}
	return trace, nil
}

// parseErrorDetails exposes the position of a metadata error, nil if it has
// none.
func parseErrorDetails(err error) any {
	var pe *metadata.ParseError
	if !errors.As(err, &pe) || !pe.Pos.IsValid() {
		return nil
	}
	return map[string]any{
		"line":   pe.Pos.Line,
		"column": pe.Pos.Column,
	}
}

func summarize(source, fingerprint string, t *ctf.Trace) CompileSummary {
	s := CompileSummary{
		Source:      source,
		Fingerprint: fingerprint,
		ByteOrder:   t.ByteOrder.String(),
		Version:     t.Version(),
		Streams:     len(t.Streams),
		Events:      t.EventCount(),
		Clocks:      t.ClockNames(),
	}
	if t.UUID != nil {
		s.UUID = t.UUID.String()
	}
	return s
}

func record(ctx context.Context, catalog, source string, t *ctf.Trace) (bool, error) {
	st, err := store.Open(catalog)
	if err != nil {
		return false, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer st.Close()

	_, inserted, err := st.WriteTrace(ctx, source, t)
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// writeDocument writes the canonical document indented for reading. Key
// order is kept, so the file hashes back to the same fingerprint once
// compacted.
func writeDocument(doc []byte, filename string) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return fmt.Errorf("indent document: %w", err)
	}
	buf.WriteByte('\n')
	return os.WriteFile(filename, buf.Bytes(), 0644)
}

func outputCompileSuccess(formatter *OutputFormatter, s CompileSummary, doc []byte) error {
	if formatter.Format == "json" {
		return formatter.Success(s)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %s\n\n", s.Source)
	fmt.Fprintf(w, "  fingerprint: %s\n", s.Fingerprint)
	fmt.Fprintf(w, "  byte order:  %s\n", s.ByteOrder)
	if s.Version != "" {
		fmt.Fprintf(w, "  version:     %s\n", s.Version)
	}
	if s.UUID != "" {
		fmt.Fprintf(w, "  uuid:        %s\n", s.UUID)
	}
	fmt.Fprintf(w, "  streams:     %d\n", s.Streams)
	fmt.Fprintf(w, "  events:      %d\n", s.Events)
	if len(s.Clocks) > 0 {
		fmt.Fprintf(w, "  clocks:      %v\n", s.Clocks)
	}

	if s.Output != "" {
		fmt.Fprintf(w, "\nWrote canonical document to %s\n", s.Output)
	}
	if s.Catalog != "" {
		if s.Inserted {
			fmt.Fprintf(w, "Recorded in %s\n", s.Catalog)
		} else {
			fmt.Fprintf(w, "Already recorded in %s\n", s.Catalog)
		}
	}
	if s.Output == "" && formatter.Verbose {
		fmt.Fprintf(w, "\n%s\n", doc)
	}
	return nil
}
