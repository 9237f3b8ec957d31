// eventpass-admin runs operator tasks against the eventpass database:
// schema migrations, a one-off spreadsheet export and minting a staff
// session token for scanners that cannot log in interactively.
//
// Usage:
//
//	eventpass-admin migrate [--down]
//	eventpass-admin export
//	eventpass-admin token [--role staff|admin]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"eventpass-backend/config"
	"eventpass-backend/export"
	"eventpass-backend/logging"
	"eventpass-backend/store"
	"eventpass-backend/token"
)

var errUsage = errors.New("usage: eventpass-admin <migrate|export|token> [flags]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	command, rest := args[0], args[1:]
	switch command {
	case "migrate":
		return runMigrate(ctx, cfg, &logger, rest, stdout)
	case "export":
		return runExport(ctx, cfg, &logger, stdout)
	case "token":
		return runToken(cfg, rest, stdout)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, errUsage.Error())
		return nil
	}
	return fmt.Errorf("unknown command %q: %w", command, errUsage)
}

func runMigrate(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, args []string, stdout io.Writer) error {
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	down := flagSet.Bool("down", false, "revert the most recent migration instead of applying pending ones")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		return err
	}
	defer pool.Close()

	mg, err := store.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer mg.Close()

	if *down {
		version, err := mg.Down(ctx)
		if err != nil {
			return err
		}
		if version == 0 {
			fmt.Fprintln(stdout, "nothing to revert")
			return nil
		}
		fmt.Fprintf(stdout, "reverted migration %d\n", version)
		return nil
	}

	version, changed, err := mg.Up(ctx)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintf(stdout, "schema is up to date at version %d\n", version)
		return nil
	}
	fmt.Fprintf(stdout, "migrated schema to version %d\n", version)
	return nil
}

func runExport(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, stdout io.Writer) error {
	if !cfg.SheetsEnabled() {
		return export.ErrNotConfigured
	}
	pool, err := store.Connect(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		return err
	}
	defer pool.Close()

	attendees, err := store.New(pool).ListAttendees(ctx)
	if err != nil {
		return err
	}
	exporter, err := export.NewSheets(ctx, cfg.GoogleCredentialsFile, cfg.SheetsSpreadsheetID, cfg.SheetsRange, logger)
	if err != nil {
		return err
	}
	n, err := exporter.Export(ctx, attendees)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported %d attendees\n", n)
	return nil
}

func runToken(cfg *config.Config, args []string, stdout io.Writer) error {
	flagSet := pflag.NewFlagSet("token", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	role := flagSet.String("role", token.SubjectStaff, "session role: staff or admin")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if *role != token.SubjectStaff && *role != token.SubjectAdmin {
		return fmt.Errorf("unknown role %q", *role)
	}

	signer, err := token.NewSigner(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	tok, err := signer.Sign(*role)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, tok)
	return nil
}
