package store

import (
	"context"
	"fmt"

	"github.com/roach88/bindgen/internal/ir"
)

// RecordRun inserts a run and its registrations in a single transaction.
// The run's ID is generated when empty and its seq is always assigned here,
// one past the highest recorded seq. Returns the stored run.
func (s *Store) RecordRun(ctx context.Context, run Run, regs []ir.Registration) (Run, error) {
	if run.ID == "" {
		run.ID = s.ids.Generate()
	}
	if run.GeneratorVersion == "" {
		run.GeneratorVersion = ir.GeneratorVersion
	}
	if run.IRVersion == "" {
		run.IRVersion = ir.IRVersion
	}
	if len(regs) > 0 {
		run.RegistrationCount = len(regs)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, source, output, module, func_name, runtime_import, status,
		 options_hash, source_hash, module_hash, output_hash,
		 fn_count, const_count, registration_count, error, generator_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.Source,
		run.Output,
		run.Module,
		run.FuncName,
		run.RuntimeImport,
		string(run.Status),
		run.OptionsHash,
		run.SourceHash,
		run.ModuleHash,
		run.OutputHash,
		run.FnCount,
		run.ConstCount,
		run.RegistrationCount,
		run.Error,
		run.GeneratorVersion,
		run.IRVersion,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: insert run: %w", err)
	}

	for i, reg := range regs {
		sig, err := marshalSignature(reg.Signature)
		if err != nil {
			return Run{}, fmt.Errorf("record run: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO registrations
			(run_id, ordinal, kind, name, access, namespace, signature, value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			i,
			string(reg.Kind),
			reg.Name,
			string(reg.Access),
			string(reg.Namespace),
			sig,
			reg.Value,
		)
		if err != nil {
			return Run{}, fmt.Errorf("record run: insert registration %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

// Prune deletes all but the keep most recent runs of source, with their
// registrations. Returns the number of runs deleted.
func (s *Store) Prune(ctx context.Context, source string, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs
		WHERE source = ? AND id NOT IN (
			SELECT id FROM runs WHERE source = ?
			ORDER BY seq DESC, id COLLATE BINARY DESC
			LIMIT ?
		)
	`, source, source, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune runs: rows affected: %w", err)
	}
	return n, nil
}
