package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

func TestParseSteps(t *testing.T) {
	if got, err := parseSteps(nil); err != nil || got != 1 {
		t.Fatalf("expected default of 1 step, got %d err=%v", got, err)
	}
	if got, err := parseSteps([]string{" 3 "}); err != nil || got != 3 {
		t.Fatalf("expected 3 steps, got %d err=%v", got, err)
	}
	for _, raw := range []string{"0", "-1", "x"} {
		if _, err := parseSteps([]string{raw}); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestIgnoreNoChange(t *testing.T) {
	if err := ignoreNoChange(migrate.ErrNoChange); err != nil {
		t.Fatalf("expected no change to be ignored, got %v", err)
	}
	boom := errors.New("boom")
	if err := ignoreNoChange(boom); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestResolveMigrationsDir(t *testing.T) {
	dir := t.TempDir()
	got, err := resolveMigrationsDir(dir)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != dir {
		t.Fatalf("expected %q, got %q", dir, got)
	}
}

func TestWithPreparedBinaryDisabled(t *testing.T) {
	got := withPreparedBinaryDisabled("postgres://u:p@localhost/focus_tracker", true)
	if !strings.Contains(got, "disable_prepared_binary_result=yes") {
		t.Fatalf("expected flag in %q", got)
	}
	dsn := "host=localhost dbname=focus_tracker"
	if got := withPreparedBinaryDisabled(dsn, true); got != dsn {
		t.Fatalf("expected dsn unchanged, got %q", got)
	}
}

func TestParseFlags(t *testing.T) {
	t.Setenv("DB_URL", "postgres://env/focus_tracker")
	t.Setenv("MIGRATIONS_DIR", "")
	t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "true")

	opts, args, err := parseFlags([]string{"down", "--dir", "/tmp/migrations", "2"})
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if opts.dbURL != "postgres://env/focus_tracker" || opts.dir != "/tmp/migrations" || !opts.disableBinary {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if len(args) != 2 || args[0] != "down" || args[1] != "2" {
		t.Fatalf("unexpected args: %v", args)
	}

	opts, _, err = parseFlags([]string{"--db-url", "postgres://flag/x", "up"})
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if opts.dbURL != "postgres://flag/x" {
		t.Fatalf("expected flag to override env, got %q", opts.dbURL)
	}
}
