// Package store handles SQLite persistence of found layouts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/layopt/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for solutions.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Parallel runs save concurrently; SQLite allows one writer.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS solutions (
			id INTEGER PRIMARY KEY,
			found_at TEXT NOT NULL,
			optimizer TEXT NOT NULL,
			layout TEXT NOT NULL,
			start_layout TEXT NOT NULL,
			fixed TEXT NOT NULL,
			cost REAL NOT NULL,
			score INTEGER NOT NULL,
			steps INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS solution_history (
			solution_id INTEGER NOT NULL,
			step INTEGER NOT NULL,
			cost REAL NOT NULL,
			PRIMARY KEY (solution_id, step)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_solutions_found_at ON solutions(found_at);`,
		`CREATE INDEX IF NOT EXISTS idx_solutions_cost ON solutions(cost);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSolution stores a solution and the cost history of its run.
func (s *Store) InsertSolution(ctx context.Context, sol model.Solution, history []model.CostPoint) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO solutions (found_at, optimizer, layout, start_layout, fixed, cost, score, steps)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sol.FoundAt.Format(time.RFC3339Nano),
		sol.Optimizer,
		sol.Layout,
		sol.StartLayout,
		sol.Fixed,
		sol.Cost,
		sol.Score,
		sol.Steps,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(history) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO solution_history (solution_id, step, cost) VALUES (?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, p := range history {
			if _, err = stmt.ExecContext(ctx, id, p.Step, p.Cost); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSolutions returns stored solutions, cheapest first.
func (s *Store) ListSolutions(ctx context.Context, filter model.SolutionFilter) ([]model.Solution, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Optimizer != "" {
		clauses = append(clauses, "optimizer = ?")
		args = append(args, filter.Optimizer)
	}
	if filter.Since != nil {
		clauses = append(clauses, "found_at >= ?")
		args = append(args, filter.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, found_at, optimizer, layout, start_layout, fixed, cost, score, steps
		FROM (
			SELECT * FROM solutions
			WHERE %s
			ORDER BY found_at DESC, id DESC
			LIMIT ?
		)
		ORDER BY cost ASC, id ASC`, strings.Join(clauses, " AND "))
	limit := filter.Last
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var solutions []model.Solution
	for rows.Next() {
		var sol model.Solution
		var foundAt string
		if err := rows.Scan(&sol.ID, &foundAt, &sol.Optimizer, &sol.Layout, &sol.StartLayout, &sol.Fixed, &sol.Cost, &sol.Score, &sol.Steps); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, foundAt)
		if err != nil {
			return nil, err
		}
		sol.FoundAt = parsed
		solutions = append(solutions, sol)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return solutions, nil
}

// ListHistory returns the cost history of a solution in step order.
func (s *Store) ListHistory(ctx context.Context, solutionID int64) ([]model.CostPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step, cost FROM solution_history WHERE solution_id = ? ORDER BY step ASC`, solutionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var history []model.CostPoint
	for rows.Next() {
		var p model.CostPoint
		if err := rows.Scan(&p.Step, &p.Cost); err != nil {
			return nil, err
		}
		history = append(history, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}
