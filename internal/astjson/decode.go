// Package astjson decodes the JSON exchange form of the unresolved tree.
//
// Every node is an object with a "type" field naming the node kind and an
// optional "offset" field holding its byte offset in the original source.
// The root is {"type": "Program", "file": ..., "body": [...]}.
package astjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/funvibe/floyd/internal/ast"
	"github.com/funvibe/floyd/internal/diagnostics"
	"github.com/funvibe/floyd/internal/token"
)

type node = map[string]any

type categoryDecoder func(n node, typ string) (ast.Node, bool, error)

var nodeDecoders []categoryDecoder

func init() {
	nodeDecoders = []categoryDecoder{
		decodeLiteralNodes,
		decodeExpressionNodes,
		decodeStatementNodes,
	}
}

// Decode reads one program.
func Decode(r io.Reader) (*ast.Program, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, diagnostics.NewError(diagnostics.ErrS001, token.Synthetic(), err.Error())
	}
	at := dec.InputOffset()
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed(nil, "unexpected data after the program at byte %d", at)
	}
	n, ok := root.(node)
	if !ok {
		return nil, malformed(nil, "root is %T, not an object", root)
	}
	if typ, _ := n["type"].(string); typ != "Program" {
		return nil, malformed(n, "root type is %q, not Program", typ)
	}
	file, _ := n["file"].(string)
	body, err := statementList(n, "body")
	if err != nil {
		return nil, err
	}
	return &ast.Program{File: file, Statements: body}, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(src []byte) (*ast.Program, error) {
	return Decode(bytes.NewReader(src))
}

func decodeNode(n node) (ast.Node, error) {
	typ, _ := n["type"].(string)
	for _, decoder := range nodeDecoders {
		decoded, handled, err := decoder(n, typ)
		if err != nil {
			return nil, err
		}
		if handled {
			return decoded, nil
		}
	}
	return nil, malformed(n, "unknown node type %q", typ)
}

func malformed(n node, format string, args ...any) error {
	return diagnostics.NewError(diagnostics.ErrS001, location(n), fmt.Sprintf(format, args...))
}

func location(n node) token.Location {
	if n == nil {
		return token.Synthetic()
	}
	if num, ok := n["offset"].(json.Number); ok {
		if off, err := num.Int64(); err == nil {
			return token.At(int(off))
		}
	}
	return token.Synthetic()
}

func child(n node, key string) (node, bool) {
	c, ok := n[key].(node)
	return c, ok
}

func expression(n node, key string) (ast.Expression, error) {
	c, ok := child(n, key)
	if !ok {
		return nil, malformed(n, "missing expression %q", key)
	}
	return asExpression(c)
}

// optionalExpression allows the key to be absent or null.
func optionalExpression(n node, key string) (ast.Expression, error) {
	if n[key] == nil {
		return nil, nil
	}
	return expression(n, key)
}

func asExpression(c node) (ast.Expression, error) {
	decoded, err := decodeNode(c)
	if err != nil {
		return nil, err
	}
	e, ok := decoded.(ast.Expression)
	if !ok {
		return nil, malformed(c, "%T is not an expression", decoded)
	}
	return e, nil
}

func expressionList(n node, key string) ([]ast.Expression, error) {
	raw, _ := n[key].([]any)
	out := make([]ast.Expression, 0, len(raw))
	for _, r := range raw {
		c, ok := r.(node)
		if !ok {
			return nil, malformed(n, "invalid %s entry %T", key, r)
		}
		e, err := asExpression(c)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func statementList(n node, key string) ([]ast.Statement, error) {
	raw, _ := n[key].([]any)
	out := make([]ast.Statement, 0, len(raw))
	for _, r := range raw {
		c, ok := r.(node)
		if !ok {
			return nil, malformed(n, "invalid %s entry %T", key, r)
		}
		decoded, err := decodeNode(c)
		if err != nil {
			return nil, err
		}
		s, ok := decoded.(ast.Statement)
		if !ok {
			return nil, malformed(c, "%T is not a statement", decoded)
		}
		out = append(out, s)
	}
	return out, nil
}

func block(n node, key string) (*ast.BlockStatement, error) {
	c, ok := child(n, key)
	if !ok {
		return nil, malformed(n, "missing block %q", key)
	}
	stmts, err := statementList(c, "body")
	if err != nil {
		return nil, err
	}
	return &ast.BlockStatement{Location: location(c), Statements: stmts}, nil
}

func optionalBlock(n node, key string) (*ast.BlockStatement, error) {
	if n[key] == nil {
		return nil, nil
	}
	return block(n, key)
}

func str(n node, key string) (string, error) {
	s, ok := n[key].(string)
	if !ok {
		return "", malformed(n, "missing string %q", key)
	}
	return s, nil
}

func flag(n node, key string) bool {
	b, _ := n[key].(bool)
	return b
}

func integer(n node, key string) (int64, error) {
	num, ok := n[key].(json.Number)
	if !ok {
		return 0, malformed(n, "missing integer %q", key)
	}
	i, err := num.Int64()
	if err != nil {
		return 0, malformed(n, "invalid integer %q: %v", key, err)
	}
	return i, nil
}

func double(n node, key string) (float64, error) {
	switch v := n[key].(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, malformed(n, "invalid double %q: %v", key, err)
		}
		return f, nil
	case string:
		// Non-finite doubles have no JSON number form.
		switch v {
		case "inf":
			return math.Inf(1), nil
		case "-inf":
			return math.Inf(-1), nil
		case "nan":
			return math.NaN(), nil
		}
	}
	return 0, malformed(n, "missing double %q", key)
}
