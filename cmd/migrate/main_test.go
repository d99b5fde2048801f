package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestParseOptions_Defaults(t *testing.T) {
	opts, err := parseOptions(nil, envMap(map[string]string{envPostgresDSN: " postgres://localhost/bookcart "}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.direction != "up" || opts.steps != 0 {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
	if opts.dsn != "postgres://localhost/bookcart" {
		t.Fatalf("dsn should fall back to env, got %q", opts.dsn)
	}
}

func TestParseOptions_FlagsOverrideEnv(t *testing.T) {
	opts, err := parseOptions(
		[]string{"-direction", " DOWN ", "-steps", "2", "-dsn", "postgres://flag/db"},
		envMap(map[string]string{envPostgresDSN: "postgres://env/db"}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.direction != "down" || opts.steps != 2 || opts.dsn != "postgres://flag/db" {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestParseOptions_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{name: "missing dsn", want: "is required"},
		{name: "bad direction", args: []string{"-direction", "sideways", "-dsn", "x"}, want: "unsupported direction"},
		{name: "negative steps", args: []string{"-steps", "-1", "-dsn", "x"}, want: "must not be negative"},
		{name: "unknown flag", args: []string{"-force"}, want: "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOptions(tt.args, envMap(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRun_Status(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("BOOKCART_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("BOOKCART_POSTGRES_TEST_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	var out bytes.Buffer
	if err := run(ctx, options{direction: "up", dsn: dsn}, &out); err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	out.Reset()
	if err := run(ctx, options{direction: "status", dsn: dsn}, &out); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out.String(), "migrate status ok: version=2 applied=2") {
		t.Fatalf("unexpected status output: %q", out.String())
	}
}
