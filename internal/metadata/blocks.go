package metadata

import (
	"go.uber.org/zap"

	"github.com/roach88/ctfmeta/internal/ast"
	"github.com/roach88/ctfmeta/internal/ctf"
	"github.com/roach88/ctfmeta/internal/tsdl"
)

// ClockOffsetFallback replaces a clock integer attribute that does not parse,
// typically an unsigned 64-bit offset past MaxInt64.
const ClockOffsetFallback int64 = 1330938566783103277

// statements walks the body of a trace, stream or event block: typedefs and
// typealiases are registered in the current scope, attributes go to fn.
func (g *Generator) statements(block *ast.Node, what string, fn func(key string, right, expr *ast.Node) error) error {
	for _, child := range block.Children {
		var err error
		switch child.Type {
		case ast.Typedef:
			err = g.parseTypedef(child)
		case ast.Typealias:
			err = g.parseTypealias(child)
		case ast.CTFExpressionVal, ast.CTFExpressionType:
			var (
				key   string
				right *ast.Node
			)
			key, right, err = tsdl.Expression(child)
			if err == nil {
				err = fn(key, right, child)
			}
		default:
			err = unexpected(child, what)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// structAttribute resolves the type of a `key := struct { ... };` attribute.
func (g *Generator) structAttribute(key string, right *ast.Node) (*ctf.Struct, error) {
	spec := right.Child(0)
	if spec == nil || spec.Type != ast.TypeSpecifierList {
		return nil, errorf(right, "%s expects a type specifier", key)
	}
	d, err := g.parseTypeSpecifierList(spec, nil)
	if err != nil {
		return nil, err
	}
	s, ok := d.(*ctf.Struct)
	if !ok {
		return nil, errorf(right, "%s expects a struct, got %s", key, d.Kind())
	}
	return s, nil
}

func (g *Generator) warnUnknown(block, key string, n *ast.Node) {
	g.log.Warn("unknown attribute",
		zap.String("block", block),
		zap.String("key", key),
		zap.Stringer("pos", n.Pos))
}

func (g *Generator) parseTrace(n *ast.Node) error {
	err := g.withScope("trace", func() error {
		if err := g.statements(n, "trace", g.parseTraceAttribute); err != nil {
			return err
		}
		if !g.trace.ByteOrder.IsSet() {
			return errorf(n, "trace byte order not set")
		}
		if g.trace.PacketHeader != nil {
			g.trace.PacketHeader = applyByteOrder(g.trace.PacketHeader, g.trace.ByteOrder).(*ctf.Struct)
		}
		return nil
	})
	if err != nil {
		return err
	}
	g.log.Debug("trace parsed",
		zap.Stringer("byte_order", g.trace.ByteOrder),
		zap.String("version", g.trace.Version()))
	return nil
}

func (g *Generator) parseTraceAttribute(key string, right, expr *ast.Node) error {
	t := g.trace
	switch key {
	case tsdl.KeyMajor:
		if t.Major != nil {
			return errorf(expr, "major is already set")
		}
		v, err := tsdl.MajorOrMinor(right)
		if err != nil {
			return err
		}
		t.Major = &v

	case tsdl.KeyMinor:
		if t.Minor != nil {
			return errorf(expr, "minor is already set")
		}
		v, err := tsdl.MajorOrMinor(right)
		if err != nil {
			return err
		}
		t.Minor = &v

	case tsdl.KeyUUID:
		if g.uuidInText {
			return errorf(expr, "uuid is already set")
		}
		u, err := tsdl.UUID(right)
		if err != nil {
			return err
		}
		g.uuidInText = true
		if t.UUID != nil && *t.UUID != u {
			return errorf(expr, "UUID mismatch: packet says %s but metadata says %s", t.UUID, u)
		}
		t.UUID = &u

	case tsdl.KeyByteOrder:
		if g.byteOrderInText {
			return errorf(expr, "byte_order is already set")
		}
		bo, err := tsdl.ByteOrder(right, t.ByteOrder)
		if err != nil {
			return err
		}
		g.byteOrderInText = true
		if t.ByteOrder.IsSet() {
			if t.ByteOrder != bo {
				return errorf(expr, "byte order mismatch: magic number says %s but metadata says %s", t.ByteOrder, bo)
			}
			return nil
		}
		if bo.IsSet() {
			t.ByteOrder = bo
			g.fixupByteOrder(g.scope, bo)
		}

	case tsdl.KeyPacketHeader:
		if t.PacketHeader != nil {
			return errorf(expr, "packet.header already defined")
		}
		s, err := g.structAttribute(key, right)
		if err != nil {
			return err
		}
		t.PacketHeader = s

	default:
		g.warnUnknown("trace", key, expr)
	}
	return nil
}

func (g *Generator) parseStream(n *ast.Node) error {
	s := &ctf.Stream{}
	err := g.withScope("stream", func() error {
		return g.statements(n, "stream", func(key string, right, expr *ast.Node) error {
			return g.parseStreamAttribute(s, key, right, expr)
		})
	})
	if err != nil {
		return err
	}

	if s.ID != nil && (g.trace.PacketHeader == nil || !g.trace.PacketHeader.HasField(tsdl.KeyStreamID)) {
		return errorf(n, "stream has an ID, but there is no stream_id field in packet header")
	}
	if err := g.trace.AddStream(s); err != nil {
		return wrapf(n, err, "cannot add stream")
	}
	g.log.Debug("stream parsed", zap.Any("id", s.ID))
	return nil
}

func (g *Generator) parseStreamAttribute(s *ctf.Stream, key string, right, expr *ast.Node) error {
	var err error
	switch key {
	case tsdl.KeyID:
		if s.ID != nil {
			return errorf(expr, "stream id already defined")
		}
		var id int64
		if id, err = tsdl.StreamID(right); err == nil {
			s.ID = &id
		}
	case tsdl.KeyEventHeader:
		if s.EventHeader != nil {
			return errorf(expr, "event.header already defined")
		}
		s.EventHeader, err = g.structAttribute(key, right)
	case tsdl.KeyEventContext:
		if s.EventContext != nil {
			return errorf(expr, "event.context already defined")
		}
		s.EventContext, err = g.structAttribute(key, right)
	case tsdl.KeyPacketContext:
		if s.PacketContext != nil {
			return errorf(expr, "packet.context already defined")
		}
		s.PacketContext, err = g.structAttribute(key, right)
	default:
		g.warnUnknown("stream", key, expr)
	}
	return err
}

func (g *Generator) parseEvent(n *ast.Node) error {
	e := &ctf.Event{}
	var stream *ctf.Stream
	err := g.withScope("event", func() error {
		return g.statements(n, "event", func(key string, right, expr *ast.Node) error {
			if key == tsdl.KeyStreamID {
				if stream != nil {
					return errorf(expr, "stream_id already defined")
				}
				id, err := tsdl.StreamID(right)
				if err != nil {
					return err
				}
				s, ok := g.trace.Stream(id)
				if !ok {
					return errorf(expr, "stream %d not found", id)
				}
				stream = s
				e.StreamID = &id
				return nil
			}
			return g.parseEventAttribute(e, key, right, expr)
		})
	})
	if err != nil {
		return err
	}

	if e.Name == "" {
		return errorf(n, "event name not set")
	}
	if stream == nil {
		if len(g.trace.Streams) > 1 {
			return errorf(n, "event %s without stream_id with more than one stream", e.Name)
		}
		s, ok := g.trace.DefaultStream()
		if !ok {
			return errorf(n, "event %s without stream_id, but there is no stream without id", e.Name)
		}
		stream = s
	}
	if err := stream.AddEvent(e); err != nil {
		return wrapf(n, err, "cannot add event %s", e.Name)
	}
	g.log.Debug("event parsed", zap.String("name", e.Name), zap.Any("id", e.ID))
	return nil
}

func (g *Generator) parseEventAttribute(e *ctf.Event, key string, right, expr *ast.Node) error {
	var err error
	switch key {
	case tsdl.KeyName:
		if e.Name != "" {
			return errorf(expr, "name already defined")
		}
		e.Name, err = tsdl.EventName(right)
	case tsdl.KeyID:
		if e.ID != nil {
			return errorf(expr, "id already defined")
		}
		var id int64
		if id, err = tsdl.EventID(right); err == nil {
			e.ID = &id
		}
	case tsdl.KeyContext:
		if e.Context != nil {
			return errorf(expr, "context already defined")
		}
		e.Context, err = g.structAttribute(key, right)
	case tsdl.KeyFields:
		if e.Fields != nil {
			return errorf(expr, "fields already defined")
		}
		e.Fields, err = g.structAttribute(key, right)
	case tsdl.KeyLogLevel:
		if e.LogLevel != nil {
			return errorf(expr, "loglevel already defined")
		}
		var level int64
		if level, err = tsdl.UnaryInteger(right.Child(0)); err == nil {
			e.LogLevel = &level
		}
	default:
		// Producers attach extra string attributes such as model.emf.uri.
		if expr.Type == ast.CTFExpressionVal && tsdl.IsUnaryStringChain(right.Children) {
			var v string
			if v, err = tsdl.Text(right); err == nil {
				if e.Attributes == nil {
					e.Attributes = make(map[string]string)
				}
				e.Attributes[key] = v
			}
			return err
		}
		g.warnUnknown("event", key, expr)
	}
	return err
}

// keyValues walks the `key = value;` children of an env, clock or callsite
// block.
func (g *Generator) keyValues(block *ast.Node, what string, fn func(key string, right, expr *ast.Node) error) error {
	for _, child := range block.Children {
		if child.Type != ast.CTFExpressionVal {
			return unexpected(child, what)
		}
		key, right, err := tsdl.Expression(child)
		if err != nil {
			return err
		}
		if err := fn(key, right, child); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) parseEnvironment(n *ast.Node) error {
	return g.keyValues(n, "env", func(key string, right, expr *ast.Node) error {
		var value string
		switch first := right.Child(0); {
		case first.Type.IsUnaryInteger():
			v, err := tsdl.Int(right)
			if err != nil {
				return err
			}
			value = ctf.IntValue(v).String()
		default:
			v, err := tsdl.Text(right)
			if err != nil {
				return wrapf(expr, err, "invalid value for environment attribute %s", key)
			}
			value = v
		}
		if _, dup := g.trace.Environment[key]; dup && !g.opts.AllowDuplicateAttributes {
			return errorf(expr, "env: duplicate attribute %s", key)
		}
		g.trace.Environment[key] = value
		return nil
	})
}

func (g *Generator) parseClock(n *ast.Node) error {
	c := ctf.NewClock()
	err := g.keyValues(n, "clock", func(key string, right, expr *ast.Node) error {
		if _, dup := c.Attributes[key]; dup && !g.opts.AllowDuplicateAttributes {
			return errorf(expr, "clock: duplicate attribute %s", key)
		}
		v, err := g.clockValue(key, right)
		if err != nil {
			return err
		}
		c.Attributes[key] = v
		return nil
	})
	if err != nil {
		return err
	}

	name, ok := c.Attributes[tsdl.KeyName]
	if !ok || !name.IsText || name.Text == "" {
		return errorf(n, "clock block without a name")
	}
	if _, dup := g.trace.Clocks[name.Text]; dup {
		return errorf(n, "clock %s already defined", name.Text)
	}
	c.Name = name.Text
	g.trace.Clocks[c.Name] = c
	g.log.Debug("clock parsed", zap.String("name", c.Name))
	return nil
}

func (g *Generator) clockValue(key string, right *ast.Node) (ctf.ClockValue, error) {
	first := right.Child(0)
	if first.Type.IsUnaryInteger() {
		v, err := tsdl.UnaryInteger(first)
		if err != nil {
			g.log.Warn("clock attribute does not fit, using fallback",
				zap.String("key", key),
				zap.Int64("fallback", ClockOffsetFallback),
				zap.Error(err))
			v = ClockOffsetFallback
		}
		return ctf.IntValue(v), nil
	}
	s, err := tsdl.Text(right)
	if err != nil {
		return ctf.ClockValue{}, wrapf(right, err, "invalid value for clock attribute %s", key)
	}
	return ctf.TextValue(s), nil
}

func (g *Generator) parseCallsite(n *ast.Node) error {
	var cs ctf.Callsite
	err := g.keyValues(n, "callsite", func(key string, right, expr *ast.Node) error {
		var err error
		switch key {
		case tsdl.KeyName:
			cs.Name, err = tsdl.Text(right)
		case tsdl.KeyFunc:
			cs.Func, err = tsdl.Text(right)
		case tsdl.KeyFile:
			cs.File, err = tsdl.Text(right)
		case tsdl.KeyLine:
			cs.Line, err = tsdl.Int(right)
		case tsdl.KeyIP:
			cs.IP, err = tsdl.Int(right)
		default:
			g.warnUnknown("callsite", key, expr)
		}
		if err != nil {
			return wrapf(expr, err, "invalid value for callsite attribute %s", key)
		}
		return nil
	})
	if err != nil {
		return err
	}
	g.trace.Callsites = append(g.trace.Callsites, cs)
	return nil
}
