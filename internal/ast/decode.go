package ast

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlNode is the serialized form of a Node. JSON documents decode through the
// same path since YAML is a superset of JSON.
//
//	type: CTF_EXPRESSION_VAL
//	children:
//	  - type: CTF_LEFT
//	    children:
//	      - type: UNARY_EXPRESSION_STRING
//	        children: [{type: IDENTIFIER, text: size}]
type yamlNode struct {
	Type     string      `yaml:"type"`
	Text     string      `yaml:"text,omitempty"`
	Line     int         `yaml:"line,omitempty"`
	Column   int         `yaml:"column,omitempty"`
	Children []*yamlNode `yaml:"children,omitempty"`
}

// LoadFile reads and decodes a serialized tree from path.
func LoadFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read AST file: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Decode reads one serialized tree. Unknown fields and unknown node types are
// rejected so that front-end drift is caught here rather than deep inside the
// compiler.
func Decode(r io.Reader) (*Node, error) {
	var doc yamlNode
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse AST: empty document")
		}
		return nil, fmt.Errorf("failed to parse AST: %w", err)
	}
	return convert(&doc, "$")
}

func convert(y *yamlNode, path string) (*Node, error) {
	if y == nil {
		return nil, fmt.Errorf("%s: null node", path)
	}
	t, err := ParseType(y.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	n := &Node{
		Type: t,
		Text: y.Text,
		Pos:  Pos{Line: y.Line, Column: y.Column},
	}
	if len(y.Children) > 0 {
		n.Children = make([]*Node, len(y.Children))
		for i, c := range y.Children {
			child, err := convert(c, fmt.Sprintf("%s.children[%d]", path, i))
			if err != nil {
				return nil, err
			}
			n.Children[i] = child
		}
	}
	return n, nil
}

// Encode writes n in the serialized form accepted by Decode.
func Encode(w io.Writer, n *Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toYAML(n)); err != nil {
		return fmt.Errorf("failed to encode AST: %w", err)
	}
	return enc.Close()
}

func toYAML(n *Node) *yamlNode {
	y := &yamlNode{
		Type:   n.Type.String(),
		Text:   n.Text,
		Line:   n.Pos.Line,
		Column: n.Pos.Column,
	}
	for _, c := range n.Children {
		y.Children = append(y.Children, toYAML(c))
	}
	return y
}
