package router

import (
	"errors"
	"fmt"
	"testing"
)

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "not found" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestNormalizeHandlerName(t *testing.T) {
	for in, want := range map[string]string{
		"/Start":        "start",
		"":              "unknown",
		" main menu ":   "main_menu",
		"callback.view": "callback.view",
	} {
		if got := normalizeHandlerName(in); got != want {
			t.Fatalf("normalizeHandlerName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeriveErrorCode(t *testing.T) {
	if got := deriveErrorCode(nil); got != "" {
		t.Fatalf("nil = %q", got)
	}
	if got := deriveErrorCode(fmt.Errorf("wrap: %w", codedErr{})); got != "NOT_FOUND" {
		t.Fatalf("coded = %q", got)
	}
	if got := deriveErrorCode(errors.New("telegram: chat not found (400)")); got != "HTTP_4XX" {
		t.Fatalf("http = %q", got)
	}
	if got := deriveErrorCode(&plainErr{}); got != "PLAINERR" {
		t.Fatalf("typed = %q", got)
	}
}
