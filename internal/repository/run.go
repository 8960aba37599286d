package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/medreport/constants"
	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/entity"
	"github.com/joseph-ayodele/medreport/internal/report"
)

// fixed width so text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000Z"

type RunRepository interface {
	Start(ctx context.Context, sourcePath, contentHash, format string) (*entity.Run, error)
	FinishSuccess(ctx context.Context, runID uuid.UUID, method, outputPath string, rows []report.Row) error
	FinishFailure(ctx context.Context, runID uuid.UUID, method, message string) error
	Get(ctx context.Context, runID uuid.UUID) (*entity.Run, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.Run, error)
	Rows(ctx context.Context, runID uuid.UUID) ([]report.Row, error)
}

type runRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewRunRepository(db *DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &runRepo{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (r *runRepo) Start(ctx context.Context, sourcePath, contentHash, format string) (*entity.Run, error) {
	run := &entity.Run{
		ID:          uuid.New(),
		SourcePath:  sourcePath,
		ContentHash: contentHash,
		Format:      format,
		Status:      constants.RunStatusRunning,
		StartedAt:   r.now(),
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO extract_run (id, source_path, content_hash, format, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		run.ID.String(), run.SourcePath, run.ContentHash, run.Format, string(run.Status), run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		r.log.Error("extract_run start failed", "source_path", sourcePath, "err", err)
		return nil, common.NewAppError(common.CodeRunHistory, "start run", errors.Join(common.ErrDatabase, err))
	}
	r.log.Debug("extract_run started", "run_id", run.ID, "source_path", sourcePath, "format", format)
	return run, nil
}

func (r *runRepo) FinishSuccess(ctx context.Context, runID uuid.UUID, method, outputPath string, rows []report.Row) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewAppError(common.CodeRunHistory, "finish run", errors.Join(common.ErrDatabase, err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, r.db.Rebind(
		`UPDATE extract_run
		    SET status = ?, method = ?, output_path = ?, row_count = ?, finished_at = ?, error_message = NULL
		  WHERE id = ?`),
		string(constants.RunStatusOK), method, outputPath, len(rows), r.now().Format(timeLayout), runID.String(),
	)
	if err != nil {
		r.log.Error("extract_run finish(OK) failed", "run_id", runID, "err", err)
		return common.NewAppError(common.CodeRunHistory, "finish run", errors.Join(common.ErrDatabase, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = fmt.Errorf("run %s: %w", runID, common.ErrNotFound)
		return err
	}

	insert := r.db.Rebind(
		`INSERT INTO report_row (run_id, position, test, normal, range_value, result) VALUES (?, ?, ?, ?, ?, ?)`)
	for i, row := range rows {
		if _, err = tx.ExecContext(ctx, insert, runID.String(), i, row.Test, row.Normal, row.Range, row.Result); err != nil {
			r.log.Error("report_row insert failed", "run_id", runID, "position", i, "err", err)
			return common.NewAppError(common.CodeRunHistory, "store rows", errors.Join(common.ErrDatabase, err))
		}
	}
	if err = tx.Commit(); err != nil {
		return common.NewAppError(common.CodeRunHistory, "commit run", errors.Join(common.ErrDatabase, err))
	}
	r.log.Debug("extract_run finished (OK)", "run_id", runID, "method", method, "rows", len(rows))
	return nil
}

func (r *runRepo) FinishFailure(ctx context.Context, runID uuid.UUID, method, message string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE extract_run SET status = ?, method = ?, error_message = ?, finished_at = ? WHERE id = ?`),
		string(constants.RunStatusFailed), method, message, r.now().Format(timeLayout), runID.String(),
	)
	if err != nil {
		r.log.Error("extract_run finish(FAILED) failed", "run_id", runID, "err", err)
		return common.NewAppError(common.CodeRunHistory, "finish run", errors.Join(common.ErrDatabase, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", runID, common.ErrNotFound)
	}
	r.log.Debug("extract_run finished (FAILED)", "run_id", runID, "error", message)
	return nil
}

const runColumns = `id, source_path, content_hash, format, method, status, error_message, row_count, output_path, started_at, finished_at`

func (r *runRepo) Get(ctx context.Context, runID uuid.UUID) (*entity.Run, error) {
	row := r.db.QueryRowContext(ctx, r.db.Rebind(`SELECT `+runColumns+` FROM extract_run WHERE id = ?`), runID.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, common.ErrNotFound)
	}
	if err != nil {
		return nil, common.NewAppError(common.CodeRunHistory, "get run", errors.Join(common.ErrDatabase, err))
	}
	return run, nil
}

func (r *runRepo) ListRecent(ctx context.Context, limit int) ([]*entity.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(
		`SELECT `+runColumns+` FROM extract_run ORDER BY started_at DESC, id LIMIT ?`), limit)
	if err != nil {
		return nil, common.NewAppError(common.CodeRunHistory, "list runs", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []*entity.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, common.NewAppError(common.CodeRunHistory, "scan run", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *runRepo) Rows(ctx context.Context, runID uuid.UUID) ([]report.Row, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(
		`SELECT test, normal, range_value, result FROM report_row WHERE run_id = ? ORDER BY position`), runID.String())
	if err != nil {
		return nil, common.NewAppError(common.CodeRunHistory, "list rows", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []report.Row
	for rows.Next() {
		var row report.Row
		if err := rows.Scan(&row.Test, &row.Normal, &row.Range, &row.Result); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*entity.Run, error) {
	var (
		run        entity.Run
		id, status string
		errMsg     sql.NullString
		started    string
		finished   sql.NullString
	)
	if err := s.Scan(&id, &run.SourcePath, &run.ContentHash, &run.Format, &run.Method, &status,
		&errMsg, &run.RowCount, &run.OutputPath, &started, &finished); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("run id %q: %w", id, err)
	}
	run.ID = parsed
	run.Status = constants.RunStatus(status)
	if errMsg.Valid {
		msg := errMsg.String
		run.ErrorMessage = &msg
	}
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("started_at %q: %w", started, err)
	}
	if finished.Valid {
		t, err := time.Parse(timeLayout, finished.String)
		if err != nil {
			return nil, fmt.Errorf("finished_at %q: %w", finished.String, err)
		}
		run.FinishedAt = &t
	}
	return &run, nil
}
