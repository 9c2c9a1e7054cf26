package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"descstats/internal/descriptive"
	"descstats/internal/errors"
)

// ErrNotFound is returned when a dataset id has no row.
var ErrNotFound = errors.NotFound("dataset")

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
  id UUID PRIMARY KEY,
  kind TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS dataset_values (
  dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  value DOUBLE PRECISION NOT NULL,
  PRIMARY KEY (dataset_id, position)
);
CREATE TABLE IF NOT EXISTS dataset_intervals (
  dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  start_value DOUBLE PRECISION NOT NULL,
  end_value DOUBLE PRECISION NOT NULL,
  frequency DOUBLE PRECISION NOT NULL,
  PRIMARY KEY (dataset_id, position)
);
CREATE TABLE IF NOT EXISTS dataset_reports (
  id UUID PRIMARY KEY,
  dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
  mean DOUBLE PRECISION NOT NULL,
  variance DOUBLE PRECISION NOT NULL,
  standard_deviation DOUBLE PRECISION NOT NULL,
  duration DOUBLE PRECISION NOT NULL,
  memory DOUBLE PRECISION NOT NULL,
  report JSONB NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Store persists datasets and their computed reports in Postgres.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects and pings the database behind dsn.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errors.DatabaseError("database not reachable", err)
	}
	return New(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.DatabaseError("migrate schema", err)
	}
	return nil
}

// DatasetInfo is a listing row.
type DatasetInfo struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	Kind      descriptive.Kind `db:"kind" json:"type"`
	Size      int              `db:"size" json:"size"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

type valueRow struct {
	DatasetID uuid.UUID `db:"dataset_id"`
	Position  int       `db:"position"`
	Value     float64   `db:"value"`
}

type intervalRow struct {
	DatasetID uuid.UUID `db:"dataset_id"`
	Position  int       `db:"position"`
	Start     float64   `db:"start_value"`
	End       float64   `db:"end_value"`
	Frequency float64   `db:"frequency"`
}

// CreateDataset stores ds under a fresh id.
func (s *Store) CreateDataset(ctx context.Context, ds descriptive.Dataset) (uuid.UUID, error) {
	id := uuid.New()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, errors.DatabaseError("begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO datasets (id, kind) VALUES ($1, $2)`, id, string(ds.Kind())); err != nil {
		return uuid.Nil, errors.DatabaseError("insert dataset", err)
	}

	switch d := ds.(type) {
	case descriptive.Sample:
		rows := valueRowsFor(id, d)
		if len(rows) > 0 {
			_, err = tx.NamedExecContext(ctx,
				`INSERT INTO dataset_values (dataset_id, position, value) VALUES (:dataset_id, :position, :value)`, rows)
		}
	case descriptive.GroupedIntervals:
		rows := intervalRowsFor(id, d)
		if len(rows) > 0 {
			_, err = tx.NamedExecContext(ctx,
				`INSERT INTO dataset_intervals (dataset_id, position, start_value, end_value, frequency)
				 VALUES (:dataset_id, :position, :start_value, :end_value, :frequency)`, rows)
		}
	default:
		return uuid.Nil, fmt.Errorf("%w: %T", descriptive.ErrUnsupportedType, ds)
	}
	if err != nil {
		return uuid.Nil, errors.DatabaseError("insert dataset rows", err)
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, errors.DatabaseError("commit dataset", err)
	}
	return id, nil
}

func (s *Store) DatasetExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM datasets WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, errors.DatabaseError("check dataset", err)
	}
	return exists, nil
}

// FetchDataset loads and re-validates the dataset stored under id.
func (s *Store) FetchDataset(ctx context.Context, id uuid.UUID, opts descriptive.DecodeOptions) (descriptive.Dataset, error) {
	var kind string
	err := s.db.GetContext(ctx, &kind, `SELECT kind FROM datasets WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.DatabaseError("fetch dataset", err)
	}

	var values []float64
	var intervals []intervalRow
	switch descriptive.Kind(kind) {
	case descriptive.KindArray:
		err = s.db.SelectContext(ctx, &values,
			`SELECT value FROM dataset_values WHERE dataset_id = $1 ORDER BY position ASC`, id)
	case descriptive.KindIntervals:
		err = s.db.SelectContext(ctx, &intervals,
			`SELECT dataset_id, position, start_value, end_value, frequency
			 FROM dataset_intervals WHERE dataset_id = $1 ORDER BY position ASC`, id)
	}
	if err != nil {
		return nil, errors.DatabaseError("fetch dataset rows", err)
	}
	return datasetFromRows(kind, values, intervals, opts)
}

// ListDatasets returns one page of datasets, newest first.
func (s *Store) ListDatasets(ctx context.Context, page, perPage int) ([]DatasetInfo, error) {
	limit, offset := windowLimitOffset(page, perPage)
	const q = `
SELECT d.id, d.kind, d.created_at,
  (SELECT COUNT(*) FROM dataset_values v WHERE v.dataset_id = d.id) +
  (SELECT COUNT(*) FROM dataset_intervals i WHERE i.dataset_id = d.id) AS size
FROM datasets d
ORDER BY d.created_at DESC, d.id
LIMIT $1 OFFSET $2`

	infos := make([]DatasetInfo, 0, limit)
	if err := s.db.SelectContext(ctx, &infos, q, limit, offset); err != nil {
		return nil, errors.DatabaseError("list datasets", err)
	}
	return infos, nil
}

// InsertReport records a computed report with its cost.
func (s *Store) InsertReport(ctx context.Context, datasetID uuid.UUID, r descriptive.Report, durationSeconds, memoryBytes float64) (uuid.UUID, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal report: %w", err)
	}
	id := uuid.New()
	const q = `
INSERT INTO dataset_reports
  (id, dataset_id, mean, variance, standard_deviation, duration, memory, report, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
`
	_, err = s.db.ExecContext(ctx, q,
		id, datasetID,
		r.Characteristics.Mean, r.Characteristics.Variance, r.Characteristics.StdDeviation,
		durationSeconds, memoryBytes, payload,
	)
	if err != nil {
		return uuid.Nil, errors.DatabaseError("insert report", err)
	}
	return id, nil
}

func valueRowsFor(id uuid.UUID, s descriptive.Sample) []valueRow {
	values := s.Values()
	rows := make([]valueRow, len(values))
	for i, v := range values {
		rows[i] = valueRow{DatasetID: id, Position: i, Value: v}
	}
	return rows
}

func intervalRowsFor(id uuid.UUID, g descriptive.GroupedIntervals) []intervalRow {
	intervals := g.Intervals()
	rows := make([]intervalRow, len(intervals))
	for i, iv := range intervals {
		rows[i] = intervalRow{DatasetID: id, Position: i, Start: iv.Start, End: iv.End, Frequency: iv.Frequency}
	}
	return rows
}

func datasetFromRows(kind string, values []float64, intervals []intervalRow, opts descriptive.DecodeOptions) (descriptive.Dataset, error) {
	k, err := descriptive.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	if k == descriptive.KindArray {
		return descriptive.NewSample(values)
	}

	ivs := make([]descriptive.Interval, len(intervals))
	for i, r := range intervals {
		ivs[i] = descriptive.Interval{Start: r.Start, End: r.End, Frequency: r.Frequency}
	}
	g, err := descriptive.NewGroupedIntervals(ivs)
	if err != nil {
		return nil, err
	}
	if opts.RequireContiguous {
		if err := descriptive.ValidateContiguous(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func windowLimitOffset(page, perPage int) (limit, offset int) {
	pp := perPage
	if pp <= 0 {
		pp = 1
	}
	pg := page
	if pg <= 0 {
		pg = 1
	}
	return pp, (pg - 1) * pp
}

// NormalizePositiveInt replaces non-positive paging input with fallback.
func NormalizePositiveInt(value int64, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return int(value)
}
