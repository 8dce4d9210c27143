// Package archive stores the champion genome of every generation of a run
// in a SQLite database.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/baldhumanity/neat-community/neat"
)

// Run describes one archived evolution run.
type Run struct {
	ID        string
	StartedAt time.Time
	Note      string
}

// Champion is an archived best genome of one generation.
type Champion struct {
	RunID      string
	Generation int
	GenomeID   int
	Fitness    float64
	Genome     *neat.Genome
}

// Archive is a SQLite-backed champion store. Init must be called before use.
type Archive struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewArchive creates an archive for the database file at path.
func NewArchive(path string) *Archive {
	return &Archive{path: path}
}

// Init opens the database and creates the tables if needed.
func (a *Archive) Init(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.path == "" {
		return errors.New("sqlite path is required")
	}
	if a.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", a.path)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", a.path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping archive %s: %w", a.path, err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("create archive tables: %w", err)
	}

	a.db = db
	return nil
}

// Close closes the database.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// StartRun registers a new run and returns its id.
func (a *Archive) StartRun(ctx context.Context, note string) (Run, error) {
	db, err := a.getDB()
	if err != nil {
		return Run{}, err
	}

	run := Run{ID: uuid.NewString(), StartedAt: time.Now().UTC(), Note: note}
	_, err = db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, note) VALUES (?, ?, ?)`,
		run.ID, run.StartedAt.UnixNano(), run.Note)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Runs lists every run in the order they were started.
func (a *Archive) Runs(ctx context.Context) ([]Run, error) {
	db, err := a.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, started_at, note FROM runs ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt int64
		if err := rows.Scan(&run.ID, &startedAt, &run.Note); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.Unix(0, startedAt).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveChampion stores g as the champion of the given generation, replacing
// any previous champion of that generation.
func (a *Archive) SaveChampion(ctx context.Context, runID string, generation int, g *neat.Genome) error {
	db, err := a.getDB()
	if err != nil {
		return err
	}

	payload, err := neat.MarshalGenome(g)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO champions (run_id, generation, genome_id, fitness, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			genome_id = excluded.genome_id,
			fitness = excluded.fitness,
			payload = excluded.payload
	`, runID, generation, g.ID, g.Fitness, payload)
	if err != nil {
		return fmt.Errorf("save champion of run %s generation %d: %w", runID, generation, err)
	}
	return nil
}

// GetChampion loads the champion of a generation. reg is passed to
// neat.UnmarshalGenome and may be nil.
func (a *Archive) GetChampion(ctx context.Context, runID string, generation int, reg *neat.InnovationRegistry) (Champion, bool, error) {
	db, err := a.getDB()
	if err != nil {
		return Champion{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT run_id, generation, genome_id, fitness, payload
		FROM champions WHERE run_id = ? AND generation = ?
	`, runID, generation)
	return scanChampion(row, reg)
}

// BestChampion loads the fittest champion of a run; the earliest generation
// wins ties.
func (a *Archive) BestChampion(ctx context.Context, runID string, reg *neat.InnovationRegistry) (Champion, bool, error) {
	db, err := a.getDB()
	if err != nil {
		return Champion{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT run_id, generation, genome_id, fitness, payload
		FROM champions WHERE run_id = ?
		ORDER BY fitness DESC, generation ASC
		LIMIT 1
	`, runID)
	return scanChampion(row, reg)
}

func scanChampion(row *sql.Row, reg *neat.InnovationRegistry) (Champion, bool, error) {
	var c Champion
	var payload []byte
	err := row.Scan(&c.RunID, &c.Generation, &c.GenomeID, &c.Fitness, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Champion{}, false, nil
		}
		return Champion{}, false, err
	}

	c.Genome, err = neat.UnmarshalGenome(payload, reg)
	if err != nil {
		return Champion{}, false, fmt.Errorf("decode champion of run %s generation %d: %w", c.RunID, c.Generation, err)
	}
	return c, true, nil
}

func (a *Archive) getDB() (*sql.DB, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.db == nil {
		return nil, errors.New("archive is not initialized")
	}
	return a.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			note TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS champions (
			run_id TEXT NOT NULL REFERENCES runs(id),
			generation INTEGER NOT NULL,
			genome_id INTEGER NOT NULL,
			fitness REAL NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
