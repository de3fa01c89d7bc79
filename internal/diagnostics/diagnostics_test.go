package diagnostics

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/funvibe/floyd/internal/token"
)

func TestNewError(t *testing.T) {
	err := NewError(ErrT001, token.At(4), "int", "string")
	if err.Message != "type mismatch: expected int, got string" {
		t.Errorf("message %q", err.Message)
	}
	if err.Error() != "T001 @4: type mismatch: expected int, got string" {
		t.Errorf("error %q", err.Error())
	}
	if err.Category() != CategoryType || err.Category().String() != "type" {
		t.Errorf("category %s", err.Category())
	}
	if c := NewError(ErrC001, token.Synthetic(), "x").Category(); c != CategoryInternal {
		t.Errorf("C001 category %s", c)
	}
}

func TestCodeOf(t *testing.T) {
	err := NewError(ErrR001, token.At(0), "x")
	if CodeOf(err) != ErrR001 {
		t.Errorf("CodeOf = %q", CodeOf(err))
	}
	if CodeOf(fmt.Errorf("compile: %w", err)) != ErrR001 {
		t.Error("CodeOf should see through wrapping")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Error("plain errors carry no code")
	}
}

// offsetError is a runtime-style error that only knows its offset.
type offsetError struct{ at int }

func (e offsetError) Error() string       { return "boom" }
func (e offsetError) Loc() token.Location { return token.At(e.at) }

func TestPrinterFormat(t *testing.T) {
	src := []byte("{\n  \"type\": \"Program\",\n  \"body\": []\n}")
	undefined := NewError(ErrR001, token.At(10), "x")

	tests := []struct {
		name string
		file string
		src  []byte
		err  error
		want string
	}{
		{"line and column", "f.floyd", src, undefined, "f.floyd:2:9: R001 undefined name: x"},
		{"wrapped", "f.floyd", src, fmt.Errorf("wrapped: %w", undefined), "f.floyd:2:9: R001 undefined name: x"},
		{"no source", "f.floyd", nil, undefined, "f.floyd:@10: R001 undefined name: x"},
		{"no file", "", src, undefined, "2:9: R001 undefined name: x"},
		{"synthetic", "f.floyd", src, NewError(ErrC001, token.Synthetic(), "bad"), "f.floyd: C001 internal compiler error: bad"},
		{"located non-diagnostic", "f.floyd", src, offsetError{at: 0}, "f.floyd:1:1: boom"},
		{"plain", "", nil, errors.New("plain"), "plain"},
		{"plain with file", "f.floyd", nil, errors.New("plain"), "f.floyd: plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPrinter(&bytes.Buffer{}, tt.file, tt.src)
			if got := p.Format(tt.err); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrinterPrint(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, "f.floyd", nil).Print(NewError(ErrS001, token.At(3), "missing type"))
	if buf.String() != "f.floyd:@3: S001 malformed tree: missing type\n" {
		t.Errorf("got %q", buf.String())
	}
}
