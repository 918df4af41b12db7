package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"

	"github.com/smukkama/dwd-ingest/internal/points"
)

// PostgresWriter writes points into a single weather_points table. The
// primary key covers measurement, tag columns and timestamp; conflicting
// writes update in place, giving the same overwrite semantics as a native
// time-series store.
type PostgresWriter struct {
	db        *sql.DB
	batchSize int
}

// NewPostgresWriter connects to the database and configures the pool.
func NewPostgresWriter(connectionString string, batchSize int) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", ErrUnavailable, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &PostgresWriter{db: db, batchSize: batchSize}, nil
}

// Ping verifies connectivity and credentials.
func (w *PostgresWriter) Ping(ctx context.Context) error {
	if err := w.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: postgres ping: %v", ErrUnavailable, err)
	}
	return nil
}

// RunMigrations executes all SQL migration files in order.
func (w *PostgresWriter) RunMigrations(migrationsDir string) error {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			sqlFiles = append(sqlFiles, file.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, filename := range sqlFiles {
		content, err := os.ReadFile(filepath.Join(migrationsDir, filename))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}
		if _, err := w.db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}
	}

	return nil
}

const upsertPoint = `
	INSERT INTO weather_points (
		measurement, station_id, station_name, reference_period, ts, fields
	) VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (measurement, station_id, reference_period, ts) DO UPDATE
	SET station_name = EXCLUDED.station_name,
	    fields = EXCLUDED.fields,
	    updated_at = CURRENT_TIMESTAMP
`

// WritePoints upserts pts in bounded batches, one transaction per batch,
// and returns how many points were committed before the first failure.
func (w *PostgresWriter) WritePoints(ctx context.Context, pts []points.Point) (int, error) {
	written := 0
	for _, part := range batch(pts, w.batchSize) {
		if err := w.writeBatch(ctx, part); err != nil {
			return written, err
		}
		written += len(part)
	}
	return written, nil
}

func (w *PostgresWriter) writeBatch(ctx context.Context, part []points.Point) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertPoint)
	if err != nil {
		return fmt.Errorf("%w: preparing upsert: %v", ErrUnavailable, err)
	}
	defer stmt.Close()

	for _, p := range part {
		fields, err := json.Marshal(p.Fields)
		if err != nil {
			return fmt.Errorf("marshaling fields: %w", err)
		}

		_, err = stmt.ExecContext(ctx,
			p.Measurement,
			p.Tags["station_id"],
			p.Tags["station_name"],
			p.Tags["reference_period"],
			p.Time,
			fields,
		)
		if err != nil {
			return fmt.Errorf("%w: upserting point: %v", ErrUnavailable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing batch: %v", ErrUnavailable, err)
	}
	return nil
}

// Close closes the connection pool.
func (w *PostgresWriter) Close() error {
	return w.db.Close()
}
