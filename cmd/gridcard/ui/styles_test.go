package ui

import (
	"bytes"
	"errors"
	"testing"
)

func TestStylesPlainOnNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := NewStyles(&buf)

	if got := s.RenderError(errors.New("decryption failed")); got != "error: decryption failed" {
		t.Fatalf("expected plain error line, got %q", got)
	}
	if got := s.RenderWarning("file_dec left behind"); got != "warning: file_dec left behind" {
		t.Fatalf("expected plain warning line, got %q", got)
	}
	if got := s.RenderHint("remove it by hand"); got != "remove it by hand" {
		t.Fatalf("expected plain hint, got %q", got)
	}
}

func TestDarkModeOverride(t *testing.T) {
	t.Setenv("GRIDCARD_DARK_MODE", "1")
	s := NewStyles(&bytes.Buffer{})
	if got := s.RenderSuccess("ok"); got != "ok" {
		t.Fatalf("expected plain text regardless of theme, got %q", got)
	}
}
