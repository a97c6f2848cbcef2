package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Inreet-Kaur/capstone/internal/platform/extraction"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// TranscriptSealer encrypts transcripts at rest. aad binds a sealed value to
// its record.
type TranscriptSealer interface {
	Seal(plaintext string, aad []byte) (string, error)
	Open(stored string, aad []byte) (string, error)
}

type repoPG struct {
	db     queryable
	sealer TranscriptSealer
}

// RepoOption configures the Postgres repository.
type RepoOption func(*repoPG)

// WithTranscriptSealer stores transcripts encrypted. Rows written without a
// sealer remain readable.
func WithTranscriptSealer(s TranscriptSealer) RepoOption {
	return func(r *repoPG) { r.sealer = s }
}

// NewRepoPG returns a Repository over a *pgxpool.Pool, a connection or a
// transaction.
func NewRepoPG(db queryable, opts ...RepoOption) Repository {
	r := &repoPG{db: db}
	for _, o := range opts {
		o(r)
	}
	return r
}

const intakeCols = `id, source, transcript, record, populated_fields, created_by, created_at`

func (r *repoPG) scan(row pgx.Row) (*IntakeRecord, error) {
	var (
		rec IntakeRecord
		raw []byte
	)
	err := row.Scan(&rec.ID, &rec.Source, &rec.Transcript, &raw, &rec.PopulatedFields, &rec.CreatedBy, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if r.sealer != nil {
		if rec.Transcript, err = r.sealer.Open(rec.Transcript, rec.ID[:]); err != nil {
			return nil, fmt.Errorf("open transcript %s: %w", rec.ID, err)
		}
	}
	rec.Record = &extraction.ClinicalRecord{}
	if err := json.Unmarshal(raw, rec.Record); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", rec.ID, err)
	}
	return &rec, nil
}

func (r *repoPG) Create(ctx context.Context, rec *IntakeRecord) error {
	raw, err := json.Marshal(rec.Record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	id := uuid.New()
	transcript := rec.Transcript
	if r.sealer != nil {
		if transcript, err = r.sealer.Seal(transcript, id[:]); err != nil {
			return fmt.Errorf("seal transcript: %w", err)
		}
	}
	if err := r.db.QueryRow(ctx, `
		INSERT INTO intake_record (id, source, transcript, record, populated_fields, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		id, rec.Source, transcript, raw, rec.PopulatedFields, rec.CreatedBy,
	).Scan(&rec.CreatedAt); err != nil {
		return err
	}
	rec.ID = id
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*IntakeRecord, error) {
	rec, err := r.scan(r.db.QueryRow(ctx, `SELECT `+intakeCols+` FROM intake_record WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*IntakeRecord, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM intake_record`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+intakeCols+` FROM intake_record ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*IntakeRecord{}
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM intake_record WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
