package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{name: "config error", code: "N101", wantMsg: "Invalid configuration file", wantCat: CategoryConfig},
		{name: "cli error", code: "N122", wantMsg: "Address already in use", wantCat: CategoryCLI},
		{name: "backend error", code: "N141", wantMsg: "Missing session secret", wantCat: CategoryBackend},
		{name: "unknown code", code: "N999", wantMsg: "Unknown error", wantCat: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	cause := fmt.Errorf("open netmagis-ui.json: permission denied")
	err := New("N101").Wrap(cause)

	want := "N101: Invalid configuration file: open netmagis-ui.json: permission denied"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}

	plain := Newf(CategoryCLI, "port %d out of range", 70000)
	if plain.Error() != "port 70000 out of range" {
		t.Errorf("Error() = %q", plain.Error())
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "N101") != nil {
		t.Error("FromError(nil) should be nil")
	}

	coded := New("N102")
	wrapped := fmt.Errorf("loading: %w", coded)
	if got := FromError(wrapped, "N101"); got != coded {
		t.Errorf("FromError should return the existing coded error, got %v", got)
	}

	got := FromError(fmt.Errorf("boom"), "N121")
	if got.Code != "N121" || got.Wrapped == nil {
		t.Errorf("FromError = %+v", got)
	}
	if !HasCode(fmt.Errorf("ctx: %w", got), "N121") {
		t.Error("HasCode should see through wrapping")
	}
	if HasCode(fmt.Errorf("plain"), "N121") {
		t.Error("HasCode on a plain error should be false")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("N101").
		WithDetail("netmagis-ui.json: unexpected end of JSON input").
		WithSuggestion("Check the file with a JSON linter")

	out := err.Format()
	for _, want := range []string{
		"ERROR N101: Invalid configuration file",
		"netmagis-ui.json: unexpected end of JSON input",
		"Hint: Check the file with a JSON linter",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() should not contain ANSI codes when colors are disabled")
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, fmt.Errorf("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("Fprint(plain) = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, fmt.Errorf("serve: %w", New("N122")))
	if !strings.Contains(buf.String(), "ERROR N122: Address already in use") {
		t.Errorf("Fprint(coded) = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 40), 20)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %d lines", len(lines))
	}
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should produce no lines")
	}
}

func TestCodesRegistered(t *testing.T) {
	for _, code := range Codes() {
		tmpl, ok := Lookup(code)
		if !ok || tmpl.Message == "" {
			t.Errorf("code %s has no message", code)
		}
	}
}
