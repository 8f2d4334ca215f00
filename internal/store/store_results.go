package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"salescope/internal/config"
	"salescope/internal/textutil"
)

const resultColumns = "id, run_id, shop, shop_key, recorded_on, salesman, video, result_dir, width, height, video_stride, frames, tracks, area_metric, speed_metric, interaction_metric, salesman_attendance, consolidated_json, error_message, created_at"

// SaveRun records a run and all of its video results in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, results []VideoResult) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("save run: empty run id")
	}
	return retryOnBusy(ctx, func() error {
		return s.saveRunTx(ctx, run, results)
	})
}

func (s *Store) saveRunTx(ctx context.Context, run Run, results []VideoResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO runs (id, started_at, finished_at, videos, failed, slowdown_threshold, consolidated)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Videos,
		run.Failed,
		run.SlowdownThreshold,
		boolToInt(run.Consolidated),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	now := formatTime(time.Now())
	for _, result := range results {
		consolidated, err := json.Marshal(result.Consolidated)
		if err != nil {
			return fmt.Errorf("marshal consolidated tracks: %w", err)
		}
		shopKey := result.ShopKey
		if shopKey == "" {
			shopKey = textutil.NameKey(result.Shop)
		}
		salesman := strings.TrimSpace(result.Salesman)
		if salesman == "" {
			salesman = config.UnknownSalesman
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO video_metrics (
                run_id, shop, shop_key, recorded_on, salesman, video, result_dir, width, height,
                video_stride, frames, tracks, area_metric, speed_metric, interaction_metric,
                salesman_attendance, consolidated_json, error_message, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			result.Shop,
			shopKey,
			nullableString(result.Date),
			salesman,
			result.Video,
			result.ResultDir,
			result.Width,
			result.Height,
			result.VideoStride,
			result.Frames,
			result.Tracks,
			result.Metrics.Area,
			result.Metrics.Speed,
			result.Metrics.Interaction,
			result.Metrics.Attendance,
			string(consolidated),
			nullableString(result.Error),
			now,
		); err != nil {
			return fmt.Errorf("insert video %q: %w", result.Video, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// List returns stored video results, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]VideoResult, error) {
	ctx = ensureContext(ctx)
	var (
		clauses []string
		args    []any
	)
	if shop := strings.TrimSpace(filter.Shop); shop != "" {
		clauses = append(clauses, "shop_key = ?")
		args = append(args, textutil.NameKey(shop))
	}
	if date := strings.TrimSpace(filter.Date); date != "" {
		clauses = append(clauses, "recorded_on = ?")
		args = append(args, date)
	}
	if salesman := strings.TrimSpace(filter.Salesman); salesman != "" {
		clauses = append(clauses, "salesman = ? COLLATE NOCASE")
		args = append(args, salesman)
	}
	if runID := strings.TrimSpace(filter.RunID); runID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, runID)
	}
	if filter.Failed != nil {
		if *filter.Failed {
			clauses = append(clauses, "error_message IS NOT NULL")
		} else {
			clauses = append(clauses, "error_message IS NULL")
		}
	}

	query := `SELECT ` + resultColumns + ` FROM video_metrics`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list video metrics: %w", err)
	}
	defer rows.Close()

	var results []VideoResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// GetRun fetches a run by id. A missing run returns nil without error.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, videos, failed, slowdown_threshold, consolidated FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// Summarize reports counts and the latest run for status output.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	ctx = ensureContext(ctx)
	summary := Summary{Path: s.path, SchemaVers: schemaVersion}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM runs`).Scan(&summary.Runs); err != nil {
		return summary, fmt.Errorf("count runs: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COUNT(error_message), COUNT(DISTINCT shop_key) FROM video_metrics`,
	).Scan(&summary.Videos, &summary.Failed, &summary.Shops); err != nil {
		return summary, fmt.Errorf("count video metrics: %w", err)
	}

	var lastAt sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT id, finished_at FROM runs ORDER BY finished_at DESC LIMIT 1`).
		Scan(&summary.LastRunID, &lastAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return summary, fmt.Errorf("latest run: %w", err)
	}
	if ts, parseErr := parseTimeString(lastAt.String); parseErr == nil {
		summary.LastRunAt = ts
	}

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		return summary, fmt.Errorf("integrity check: %w", err)
	}
	summary.Integrity = strings.EqualFold(integrity, "ok")
	return summary, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		startedRaw   string
		finishedRaw  string
		consolidated int
	)
	if err := scanner.Scan(&run.ID, &startedRaw, &finishedRaw, &run.Videos, &run.Failed, &run.SlowdownThreshold, &consolidated); err != nil {
		return nil, err
	}
	run.Consolidated = consolidated != 0
	if ts, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = ts
	}
	if ts, err := parseTimeString(finishedRaw); err == nil {
		run.FinishedAt = ts
	}
	return &run, nil
}

func scanResult(scanner interface{ Scan(dest ...any) error }) (VideoResult, error) {
	var (
		result       VideoResult
		recordedOn   sql.NullString
		consolidated sql.NullString
		errorMessage sql.NullString
		createdRaw   string
	)
	if err := scanner.Scan(
		&result.ID,
		&result.RunID,
		&result.Shop,
		&result.ShopKey,
		&recordedOn,
		&result.Salesman,
		&result.Video,
		&result.ResultDir,
		&result.Width,
		&result.Height,
		&result.VideoStride,
		&result.Frames,
		&result.Tracks,
		&result.Metrics.Area,
		&result.Metrics.Speed,
		&result.Metrics.Interaction,
		&result.Metrics.Attendance,
		&consolidated,
		&errorMessage,
		&createdRaw,
	); err != nil {
		return VideoResult{}, fmt.Errorf("scan video metrics: %w", err)
	}
	result.Date = recordedOn.String
	result.Error = errorMessage.String
	if consolidated.Valid && consolidated.String != "" && consolidated.String != "null" {
		if err := json.Unmarshal([]byte(consolidated.String), &result.Consolidated); err != nil {
			return VideoResult{}, fmt.Errorf("decode consolidated tracks: %w", err)
		}
	}
	if ts, err := parseTimeString(createdRaw); err == nil {
		result.CreatedAt = ts
	}
	return result, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		value = time.Now()
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
