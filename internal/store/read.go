package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/bindgen/internal/ir"
)

const runColumns = `id, seq, source, output, module, func_name, runtime_import, status,
	options_hash, source_hash, module_hash, output_hash,
	fn_count, const_count, registration_count, error, generator_version, ir_version`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ReadRun retrieves a single run by ID.
// Returns ErrNotFound if the run does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// LatestRun returns the most recent run of source that produced or kept
// an output. Failed runs are ignored.
// Returns ErrNotFound if there is none.
func (s *Store) LatestRun(ctx context.Context, source string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE source = ? AND status IN ('generated', 'skipped')
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, source)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run of %s: %w", source, ErrNotFound)
	}
	return run, err
}

// Lookup reports whether the latest run of key.Source was made from the
// same source bytes and options. The caller still has to check that the
// output on disk matches the run's OutputHash.
func (s *Store) Lookup(ctx context.Context, key CacheKey) (Run, bool, error) {
	run, err := s.LatestRun(ctx, key.Source)
	if errors.Is(err, ErrNotFound) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	if run.SourceHash != key.SourceHash || run.OptionsHash != key.OptionsHash {
		return run, false, nil
	}
	return run, true, nil
}

// ListRuns returns runs ordered by seq ASC, id ASC. With a Limit only the
// most recent runs are returned, still in ascending order.
func (s *Store) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if filter.Source != "" {
		query += ` WHERE source = ?`
		args = append(args, filter.Source)
	}
	if filter.Limit > 0 {
		query = `SELECT * FROM (` + query + ` ORDER BY seq DESC, id COLLATE BINARY DESC LIMIT ?)`
		args = append(args, filter.Limit)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRegistrations returns the registrations recorded for a run, in the
// order the routine issues them. Returns an empty slice (not nil) when
// there are none.
func (s *Store) ReadRegistrations(ctx context.Context, runID string) ([]ir.Registration, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, name, access, namespace, signature, value
		FROM registrations
		WHERE run_id = ?
		ORDER BY ordinal ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	regs := []ir.Registration{}
	for rows.Next() {
		var reg ir.Registration
		var kind, access, namespace, sig string
		if err := rows.Scan(&kind, &reg.Name, &access, &namespace, &sig, &reg.Value); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		reg.Kind = ir.RegistrationKind(kind)
		reg.Access = ir.Access(access)
		reg.Namespace = ir.Namespace(namespace)
		reg.Signature, err = unmarshalSignature(reg.Kind, sig)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return regs, nil
}

// scanRun scans one row selected with runColumns.
func scanRun(row scanner) (Run, error) {
	var run Run
	var status string
	err := row.Scan(
		&run.ID, &run.Seq, &run.Source, &run.Output, &run.Module, &run.FuncName, &run.RuntimeImport, &status,
		&run.OptionsHash, &run.SourceHash, &run.ModuleHash, &run.OutputHash,
		&run.FnCount, &run.ConstCount, &run.RegistrationCount, &run.Error, &run.GeneratorVersion, &run.IRVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Status = RunStatus(status)
	return run, nil
}
