package dsl

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shaiso/Weft/internal/domain"
)

func TestParse_Basic(t *testing.T) {
	text := `
flow Report:
description: "daily report pipeline"

# extract first
extract -> transform
transform -> load
`
	def, err := Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if def.Name != "Report" {
		t.Errorf("expected name Report, got %q", def.Name)
	}
	if def.Description != "daily report pipeline" {
		t.Errorf("unexpected description: %q", def.Description)
	}

	want := []domain.Connection{
		{Source: "extract", Target: "transform"},
		{Source: "transform", Target: "load"},
	}
	if !reflect.DeepEqual(def.Connections, want) {
		t.Errorf("unexpected connections: %+v", def.Connections)
	}
}

func TestParse_FanOut(t *testing.T) {
	def, err := Parse("flow F:\nA -> [B, C]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ровно два Connection, в порядке появления целей.
	want := []domain.Connection{
		{Source: "A", Target: "B"},
		{Source: "A", Target: "C"},
	}
	if !reflect.DeepEqual(def.Connections, want) {
		t.Errorf("expected %+v, got %+v", want, def.Connections)
	}
}

func TestParse_Idempotent(t *testing.T) {
	text := "flow F:\ndescription: \"t\"\nA -> B\nB -> [C, D]"

	first, err := Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Parse(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("parse is not idempotent: %+v vs %+v", first, second)
	}
}

func TestParse_FirstDescriptionWins(t *testing.T) {
	def, err := Parse("flow F:\ndescription: \"one\"\ndescription: \"two\"\nA -> B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if def.Description != "one" {
		t.Errorf("expected first description to win, got %q", def.Description)
	}
}

func TestParse_MalformedHeader(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "no header", text: "A -> B"},
		{name: "missing colon", text: "flow F\nA -> B"},
		{name: "missing name", text: "flow :\nA -> B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if !errors.Is(err, ErrMalformedHeader) {
				t.Errorf("expected ErrMalformedHeader, got %v", err)
			}
		})
	}
}

func TestParse_ConnectionSyntax(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "no arrow", line: "A B"},
		{name: "empty source", line: "-> B"},
		{name: "empty target", line: "A ->"},
		{name: "chained arrows", line: "A -> B -> C"},
		{name: "unclosed bracket", line: "A -> [B, C"},
		{name: "empty list element", line: "A -> [B, ]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("flow F:\n" + tt.line)
			if !errors.Is(err, ErrConnectionSyntax) {
				t.Errorf("expected ErrConnectionSyntax, got %v", err)
			}

			var pErr *ParseError
			if !errors.As(err, &pErr) {
				t.Fatalf("expected ParseError, got %T", err)
			}
			if pErr.Line != 2 {
				t.Errorf("expected line 2, got %d", pErr.Line)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("\n\n# only comments\n")
	if !errors.Is(err, ErrEmptyDefinition) {
		t.Errorf("expected ErrEmptyDefinition, got %v", err)
	}
}
