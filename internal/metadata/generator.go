package metadata

import (
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/ctfmeta/internal/ast"
	"github.com/roach88/ctfmeta/internal/ctf"
)

// Options configures a Generator.
type Options struct {
	// ByteOrder seeds the trace byte order, typically from the magic number
	// of the first packet. A byte_order attribute in the trace block must
	// then agree with it.
	ByteOrder ctf.ByteOrder

	// UUID seeds the trace UUID, typically from a packet header. A uuid
	// attribute in the trace block must then agree with it.
	UUID *uuid.UUID

	// AllowDuplicateAttributes lets a key repeat inside one integer, float,
	// string, environment or clock block; the last value wins. By default a
	// repeated key is an error.
	AllowDuplicateAttributes bool

	// Logger receives debug traces of the phases and warnings for skipped
	// attributes. Nil disables logging.
	Logger *zap.Logger
}

// errGeneratorUsed is returned when Generate is called twice.
var errGeneratorUsed = errors.New("metadata: generator already used")

// Generator compiles one document.
type Generator struct {
	opts  Options
	log   *zap.Logger
	trace *ctf.Trace
	root  *Scope
	scope *Scope
	used  bool

	// byteOrderInText is set once the trace block has a byte_order attribute.
	byteOrderInText bool
	uuidInText      bool
}

// NewGenerator returns a Generator for one document.
func NewGenerator(opts Options) *Generator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	root := NewScope(nil)

	trace := ctf.NewTrace()
	trace.ByteOrder = opts.ByteOrder
	if opts.UUID != nil {
		u := *opts.UUID
		trace.UUID = &u
	}

	return &Generator{
		opts:  opts,
		log:   log,
		trace: trace,
		root:  root,
		scope: root,
	}
}

// Generate compiles the document rooted at root. On error no trace is
// returned.
func Generate(root *ast.Node, opts Options) (*ctf.Trace, error) {
	return NewGenerator(opts).Generate(root)
}

// Generate compiles the document rooted at root.
func (g *Generator) Generate(root *ast.Node) (*ctf.Trace, error) {
	if g.used {
		return nil, errGeneratorUsed
	}
	g.used = true

	if err := g.parseRoot(root); err != nil {
		g.log.Debug("compilation failed", zap.Error(err))
		return nil, err
	}
	g.log.Debug("compilation done",
		zap.Int("streams", len(g.trace.Streams)),
		zap.Int("events", g.trace.EventCount()),
		zap.Int("clocks", len(g.trace.Clocks)))
	return g.trace, nil
}

// Trace returns the trace being built. It is complete only after Generate
// succeeded.
func (g *Generator) Trace() *ctf.Trace {
	return g.trace
}

// RootScope returns the document scope holding root-level named types.
func (g *Generator) RootScope() *Scope {
	return g.root
}

// CurrentScope returns the innermost scope.
func (g *Generator) CurrentScope() *Scope {
	return g.scope
}

func (g *Generator) pushScope(what string) {
	g.scope = NewScope(g.scope)
	g.log.Debug("push scope", zap.String("block", what), zap.Int("depth", g.scope.Depth()))
}

func (g *Generator) popScope(what string) {
	g.log.Debug("pop scope", zap.String("block", what), zap.Int("depth", g.scope.Depth()))
	if g.scope.Parent() != nil {
		g.scope = g.scope.Parent()
	}
}

// withScope runs fn in a fresh child scope, popping it on every return path.
func (g *Generator) withScope(what string, fn func() error) error {
	g.pushScope(what)
	defer g.popScope(what)
	return fn()
}

// blocks holds the top-level children of a document, bucketed by kind.
type blocks struct {
	declarations []*ast.Node
	trace        *ast.Node
	streams      []*ast.Node
	events       []*ast.Node
	clocks       []*ast.Node
	envs         []*ast.Node
	callsites    []*ast.Node
}

func classify(root *ast.Node) (*blocks, error) {
	if root == nil || root.Type != ast.Root {
		return nil, errorf(root, "expected a ROOT node")
	}
	b := &blocks{}
	for _, child := range root.Children {
		switch child.Type {
		case ast.Declaration:
			b.declarations = append(b.declarations, child)
		case ast.Trace:
			if b.trace != nil {
				return nil, errorf(child, "only one trace block is allowed")
			}
			b.trace = child
		case ast.Stream:
			b.streams = append(b.streams, child)
		case ast.Event:
			b.events = append(b.events, child)
		case ast.Clock:
			b.clocks = append(b.clocks, child)
		case ast.Env:
			b.envs = append(b.envs, child)
		case ast.Callsite:
			b.callsites = append(b.callsites, child)
		default:
			return nil, unexpected(child, "document root")
		}
	}
	return b, nil
}

func (g *Generator) parseRoot(root *ast.Node) error {
	b, err := classify(root)
	if err != nil {
		return err
	}
	g.log.Debug("classified document",
		zap.Int("declarations", len(b.declarations)),
		zap.Int("streams", len(b.streams)),
		zap.Int("events", len(b.events)),
		zap.Int("clocks", len(b.clocks)),
		zap.Int("envs", len(b.envs)),
		zap.Int("callsites", len(b.callsites)))

	for _, env := range b.envs {
		if err := g.parseEnvironment(env); err != nil {
			return err
		}
	}
	for _, clock := range b.clocks {
		if err := g.parseClock(clock); err != nil {
			return err
		}
	}
	for _, cs := range b.callsites {
		if err := g.parseCallsite(cs); err != nil {
			return err
		}
	}
	for _, decl := range b.declarations {
		if err := g.parseRootDeclaration(decl); err != nil {
			return err
		}
	}

	if b.trace == nil {
		return errorf(root, "missing trace block")
	}
	if err := g.parseTrace(b.trace); err != nil {
		return err
	}

	if len(b.streams) == 0 {
		g.log.Debug("no stream block, adding a stream without id")
		if err := g.trace.AddStream(&ctf.Stream{}); err != nil {
			return wrapf(root, err, "cannot add default stream")
		}
	}
	for _, stream := range b.streams {
		if err := g.parseStream(stream); err != nil {
			return err
		}
	}

	for _, event := range b.events {
		if err := g.parseEvent(event); err != nil {
			return err
		}
	}
	return nil
}

// parseRootDeclaration handles a top-level typedef, typealias or bare type
// specifier such as `struct foo { ... };`.
func (g *Generator) parseRootDeclaration(decl *ast.Node) error {
	for _, child := range decl.Children {
		switch child.Type {
		case ast.Typedef:
			if err := g.parseTypedef(child); err != nil {
				return err
			}
		case ast.Typealias:
			if err := g.parseTypealias(child); err != nil {
				return err
			}
		case ast.TypeSpecifierList:
			if _, err := g.parseTypeSpecifierList(child, nil); err != nil {
				return err
			}
		default:
			return unexpected(child, "declaration")
		}
	}
	return nil
}
