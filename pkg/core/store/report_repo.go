package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRunNotFound is returned by Load for unknown run ids.
var ErrRunNotFound = errors.New("analysis run not found")

// RunRecord is one persisted analysis run. Result holds the JSON-encoded
// pipeline result.
type RunRecord struct {
	RunID     uuid.UUID       `json:"run_id"`
	Ticker    string          `json:"ticker"`
	Form      string          `json:"form"`
	CIK       string          `json:"cik"`
	Result    json.RawMessage `json:"result"`
	Markdown  string          `json:"markdown,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewRunRecord marshals result and stamps a fresh id when runID is zero.
func NewRunRecord(runID uuid.UUID, ticker, form, cik string, result any, markdown string) (*RunRecord, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	return &RunRecord{
		RunID:     runID,
		Ticker:    strings.ToUpper(strings.TrimSpace(ticker)),
		Form:      form,
		CIK:       cik,
		Result:    data,
		Markdown:  markdown,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ReportRepo stores analysis runs as JSONB rows.
type ReportRepo struct {
	pool *pgxpool.Pool
}

// NewReportRepo falls back to the shared pool when p is nil.
func NewReportRepo(p *pgxpool.Pool) *ReportRepo {
	if p == nil {
		p = GetPool()
	}
	return &ReportRepo{pool: p}
}

// Save upserts rec keyed by its run id.
func (r *ReportRepo) Save(ctx context.Context, rec *RunRecord) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	query := `
		INSERT INTO analysis_runs (run_id, ticker, form, cik, result_json, report_md, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id)
		DO UPDATE SET
			result_json = EXCLUDED.result_json,
			report_md = EXCLUDED.report_md;
	`
	_, err := r.pool.Exec(ctx, query, rec.RunID, rec.Ticker, rec.Form, rec.CIK, []byte(rec.Result), rec.Markdown, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis run: %w", err)
	}
	return nil
}

// Load returns ErrRunNotFound for unknown ids.
func (r *ReportRepo) Load(ctx context.Context, runID uuid.UUID) (*RunRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	query := `SELECT run_id, ticker, form, cik, result_json, report_md, created_at FROM analysis_runs WHERE run_id = $1`

	rec, err := scanRecord(r.pool.QueryRow(ctx, query, runID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis run: %w", err)
	}
	return rec, nil
}

// ListRecent returns up to limit runs, newest first. An empty ticker lists
// every company.
func (r *ReportRepo) ListRecent(ctx context.Context, ticker string, limit int) ([]*RunRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT run_id, ticker, form, cik, result_json, report_md, created_at
		FROM analysis_runs
		WHERE ($1 = '' OR ticker = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, strings.ToUpper(strings.TrimSpace(ticker)), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(row pgx.Row) (*RunRecord, error) {
	var rec RunRecord
	var cik, md *string
	var result []byte
	if err := row.Scan(&rec.RunID, &rec.Ticker, &rec.Form, &cik, &result, &md, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if cik != nil {
		rec.CIK = *cik
	}
	if md != nil {
		rec.Markdown = *md
	}
	rec.Result = result
	return &rec, nil
}
