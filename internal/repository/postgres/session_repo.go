package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jedlsf/buwis-friend/internal/domain"
	"github.com/jedlsf/buwis-friend/internal/port"
)

type sessionRepo struct {
	db *sqlx.DB
}

// sessionRow scans JSONB into a plain byte slice; the driver may hand it back
// as a string, which database/sql only converts into *[]byte.
type sessionRow struct {
	ID        uuid.UUID `db:"id"`
	UserID    string    `db:"user_id"`
	Year      int       `db:"year"`
	Quarter   int       `db:"quarter"`
	Document  []byte    `db:"document"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row sessionRow) record() domain.SessionRecord {
	return domain.SessionRecord{
		ID:        row.ID,
		UserID:    row.UserID,
		Year:      row.Year,
		Quarter:   row.Quarter,
		Document:  row.Document,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

const sessionColumns = "id, user_id, year, quarter, document, created_at, updated_at"

// NewSessionRepo creates a new PostgreSQL-backed SessionRepository.
func NewSessionRepo(db *sqlx.DB) port.SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, rec *domain.SessionRecord) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := `INSERT INTO filing_sessions (id, user_id, year, quarter, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Year, rec.Quarter, []byte(rec.Document), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sessionRepo.Create: %w", err)
	}
	return nil
}

func (r *sessionRepo) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.SessionRecord, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row,
		"SELECT "+sessionColumns+" FROM filing_sessions WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("sessionRepo.GetByID: %w", err)
	}
	rec := row.record()
	return &rec, nil
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.SessionRecord, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM filing_sessions WHERE user_id = $1", userID)
	if err != nil {
		return nil, 0, fmt.Errorf("sessionRepo.ListByUser count: %w", err)
	}

	var rows []sessionRow
	err = r.db.SelectContext(ctx, &rows,
		`SELECT `+sessionColumns+` FROM filing_sessions WHERE user_id = $1
		 ORDER BY year DESC, quarter DESC, created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("sessionRepo.ListByUser: %w", err)
	}
	recs := make([]domain.SessionRecord, len(rows))
	for i, row := range rows {
		recs[i] = row.record()
	}
	return recs, total, nil
}

func (r *sessionRepo) Update(ctx context.Context, rec *domain.SessionRecord) error {
	next := time.Now().UTC().Truncate(time.Microsecond)
	if !next.After(rec.UpdatedAt) {
		next = rec.UpdatedAt.Add(time.Microsecond)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE filing_sessions SET year = $1, quarter = $2, document = $3, updated_at = $4
		 WHERE id = $5 AND user_id = $6 AND updated_at = $7`,
		rec.Year, rec.Quarter, []byte(rec.Document), next, rec.ID, rec.UserID, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sessionRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists bool
		err := r.db.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM filing_sessions WHERE id = $1 AND user_id = $2)", rec.ID, rec.UserID)
		if err != nil {
			return fmt.Errorf("sessionRepo.Update exists: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	rec.UpdatedAt = next
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM filing_sessions WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("sessionRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *sessionRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
