package testfixtures

import "testing"

func TestIDGeneratorSequence(t *testing.T) {
	gen := NewIDGenerator("")
	if got := gen.Next(); got != "id-1" {
		t.Fatalf("expected id-1, got %q", got)
	}
	next := gen.NextFunc()
	if got := next(); got != "id-2" {
		t.Fatalf("expected id-2, got %q", got)
	}
	gen.Reset()
	if got := gen.Next(); got != "id-1" {
		t.Fatalf("expected reset sequence, got %q", got)
	}
}

func TestNilIDGeneratorYieldsEmpty(t *testing.T) {
	var gen *IDGenerator
	if got := gen.NextFunc()(); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}
