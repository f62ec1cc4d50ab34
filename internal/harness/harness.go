package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/ctfmeta/internal/ast"
	"github.com/roach88/ctfmeta/internal/ctf"
	"github.com/roach88/ctfmeta/internal/metadata"
	"github.com/roach88/ctfmeta/internal/store"
)

// Run executes a scenario and returns the result.
//
// Each scenario records its trace in a fresh in-memory catalog, so
// catalog_row assertions see only that trace. An error is returned only when
// the scenario cannot be executed at all; compiler failures and failed
// assertions are reported through the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, zap.NewNop())
}

// RunWithLogger is Run with the generator's debug output sent to log.
func RunWithLogger(scenario *Scenario, log *zap.Logger) (*Result, error) {
	root, err := ast.LoadFile(scenario.Document)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	opts, err := scenario.Options.metadataOptions()
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	opts.Logger = log.With(zap.String("scenario", scenario.Name))

	result := NewResult()

	trace, err := metadata.Generate(root, opts)
	if err != nil {
		result.CompileError = err.Error()
		switch {
		case scenario.Expect == nil:
			result.AddError(fmt.Sprintf("compile failed: %v", err))
		case !strings.Contains(err.Error(), scenario.Expect.Error):
			result.AddError(fmt.Sprintf("compile error %q does not contain %q", err.Error(), scenario.Expect.Error))
		}
		return result, nil
	}
	if scenario.Expect != nil {
		result.AddError(fmt.Sprintf("expected compile error containing %q, compiled successfully", scenario.Expect.Error))
		return result, nil
	}

	doc, err := ctf.Canonical(trace)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	fingerprint, _, err := st.WriteTrace(ctx, scenario.Name, trace)
	if err != nil {
		return nil, fmt.Errorf("failed to record trace: %w", err)
	}
	result.recordTrace(trace, fingerprint, doc)

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// metadataOptions converts the YAML options into generator options.
func (o Options) metadataOptions() (metadata.Options, error) {
	bo, err := ctf.ParseByteOrder(o.ByteOrder)
	if err != nil {
		return metadata.Options{}, err
	}
	opts := metadata.Options{
		ByteOrder:                bo,
		AllowDuplicateAttributes: o.AllowDuplicateAttributes,
	}
	if o.UUID != "" {
		id, err := uuid.Parse(o.UUID)
		if err != nil {
			return metadata.Options{}, fmt.Errorf("invalid uuid %q: %w", o.UUID, err)
		}
		opts.UUID = &id
	}
	return opts, nil
}
