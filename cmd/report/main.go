// Command report renders a stored filing session offline. It reads a session
// document from a file (or from the database with -session and -user), prints
// the period summary and filing deadlines, and writes the requested exports.
//
// Usage:
//
//	go run ./cmd/report -in session.json -format all -out ./reports
//	go run ./cmd/report -session <uuid> -user <user-id> -format xlsx
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jedlsf/buwis-friend/internal/calendar"
	"github.com/jedlsf/buwis-friend/internal/config"
	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/filing"
	"github.com/jedlsf/buwis-friend/internal/repository/postgres"
	"github.com/jedlsf/buwis-friend/internal/service"
)

type options struct {
	in        string
	sessionID string
	userID    string
	format    string
	outDir    string
}

func main() {
	_ = godotenv.Load()
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var opts options
	flag.StringVar(&opts.in, "in", "", "path to a session JSON document ('-' for stdin)")
	flag.StringVar(&opts.sessionID, "session", "", "load the session with this ID from the database instead of -in")
	flag.StringVar(&opts.userID, "user", "", "owner of -session")
	flag.StringVar(&opts.format, "format", "all", "export format: csv, xlsx, all or none")
	flag.StringVar(&opts.outDir, "out", ".", "directory for the exported files")
	flag.Parse()

	if err := run(context.Background(), opts, os.Stdin, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("report failed")
	}
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer) error {
	sess, err := loadSession(ctx, opts, stdin)
	if err != nil {
		return err
	}

	formats, err := exportFormats(opts.format)
	if err != nil {
		return err
	}

	deadlines, err := calendar.DeadlinesFor(sess.Period())
	if err != nil {
		return err
	}
	out := struct {
		Summary   filing.Summary     `json:"summary"`
		Deadlines calendar.Deadlines `json:"deadlines"`
	}{sess.Summary(), deadlines}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("printing summary: %w", err)
	}

	now := time.Now()
	for _, f := range formats {
		res, err := service.RenderReport(sess, f, now)
		if err != nil {
			return err
		}
		path := filepath.Join(opts.outDir, res.Filename)
		if err := os.WriteFile(path, res.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Info().Str("format", string(f)).Str("path", path).Int("bytes", len(res.Data)).Msg("export written")
	}
	return nil
}

func loadSession(ctx context.Context, opts options, stdin io.Reader) (*filing.Session, error) {
	if opts.sessionID != "" {
		return loadFromDB(ctx, opts)
	}

	var (
		data []byte
		err  error
	)
	switch opts.in {
	case "":
		return nil, fmt.Errorf("one of -in or -session is required")
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(opts.in)
	}
	if err != nil {
		return nil, fmt.Errorf("reading session document: %w", err)
	}
	return filing.Parse(data)
}

func loadFromDB(ctx context.Context, opts options) (*filing.Session, error) {
	id, err := uuid.Parse(opts.sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid -session: %w", err)
	}
	if opts.userID == "" {
		return nil, fmt.Errorf("-user is required with -session")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	rec, err := postgres.NewSessionRepo(db).GetByID(ctx, opts.userID, id)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	return filing.Parse(rec.Document)
}

func exportFormats(s string) ([]domain.ExportFormat, error) {
	switch s {
	case "all":
		return []domain.ExportFormat{domain.ExportCSV, domain.ExportXLSX}, nil
	case "none":
		return nil, nil
	default:
		f, err := domain.ParseExportFormat(s)
		if err != nil {
			return nil, err
		}
		return []domain.ExportFormat{f}, nil
	}
}
