package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"eventpass-backend/export"
	"eventpass-backend/token"
)

func TestRunRequiresCommand(t *testing.T) {
	if err := run(context.Background(), nil, &bytes.Buffer{}); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if err := run(context.Background(), []string{"frobnicate"}, &bytes.Buffer{}); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error for unknown command, got %v", err)
	}
}

func TestRunToken(t *testing.T) {
	t.Setenv("TOKEN_SECRET", "cli-test-secret-0123456789")
	t.Setenv("TOKEN_TTL", "2m")

	var out bytes.Buffer
	if err := run(context.Background(), []string{"token", "--role", "admin"}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	signer, err := token.NewSigner("cli-test-secret-0123456789", 2*time.Minute)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	claims, ok := signer.Verify(strings.TrimSpace(out.String()))
	if !ok || claims.Subject != token.SubjectAdmin {
		t.Fatalf("expected a valid admin token, got %q", out.String())
	}

	if err := run(context.Background(), []string{"token", "--role", "janitor"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
}

func TestRunExportNotConfigured(t *testing.T) {
	t.Setenv("SHEETS_SPREADSHEET_ID", "")
	t.Setenv("GOOGLE_CREDENTIALS_FILE", "")
	if err := run(context.Background(), []string{"export"}, &bytes.Buffer{}); !errors.Is(err, export.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestRunMigrateRejectsUnknownFlag(t *testing.T) {
	err := run(context.Background(), []string{"migrate", "--sideways"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "sideways") {
		t.Fatalf("expected flag error before connecting, got %v", err)
	}
}
