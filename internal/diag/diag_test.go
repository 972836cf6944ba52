package diag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, CodeUnknown},
		{"canceled", fmt.Errorf("wrap: %w", context.Canceled), CodeCancel},
		{"deadline", context.DeadlineExceeded, CodeCancel},
		{"validation", domain.Validationf("bad"), CodeValidation},
		{"not found", domain.NotFound("segment", 1), CodeNotFound},
		{"forbidden", domain.Forbiddenf("no"), CodeForbidden},
		{"precondition", &domain.PreconditionError{Op: "translate", Current: domain.StatusConfirmed}, CodePrecondition},
		{"provider", &domain.ProviderError{Provider: "x", Err: errors.New("quota")}, CodeProvider},
		{"provider over network", &domain.ProviderError{Provider: "x", Err: &net.DNSError{Err: "x"}}, CodeNetwork},
		{"network", &net.DNSError{Err: "x"}, CodeNetwork},
		{"other", errors.New("other"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", "json", &buf)
	log.Info("hidden")
	log.Error("shown", Err(domain.NotFound("file", 3)))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"code":"not_found"`) {
		t.Errorf("expected error code in output, got %s", out)
	}
}
