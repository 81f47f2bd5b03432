package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/warp/clientdesk/desk"
)

const calcColumns = `id, assignee_id, calc_key, data, updated_at`

// GetCalc returns the payload stored for (assigneeID, key), or nil.
func (s *Store) GetCalc(ctx context.Context, assigneeID int64, key string) (*desk.CalcRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+calcColumns+`
		FROM calculator_data
		WHERE assignee_id = ? AND calc_key = ?`,
		assigneeID, key,
	)
	rec, err := scanCalc(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// UpsertCalc replaces the payload for (assigneeID, key) and bumps updated_at.
func (s *Store) UpsertCalc(ctx context.Context, assigneeID int64, key string, data desk.CalcData) (*desk.CalcRecord, error) {
	if data == nil {
		data = desk.CalcData{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal calc data: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO calculator_data (assignee_id, calc_key, data, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(assignee_id, calc_key) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
		RETURNING `+calcColumns,
		assigneeID, key, string(payload),
	)
	return scanCalc(row)
}

func scanCalc(row rowScanner) (*desk.CalcRecord, error) {
	var rec desk.CalcRecord
	var payload, updatedAt string
	if err := row.Scan(&rec.ID, &rec.AssigneeID, &rec.CalcKey, &payload, &updatedAt); err != nil {
		return nil, err
	}
	rec.UpdatedAt = parseTime(updatedAt)

	rec.Data = desk.CalcData{}
	if strings.TrimSpace(payload) != "" {
		if err := json.Unmarshal([]byte(payload), &rec.Data); err != nil {
			return nil, fmt.Errorf("decode calc %s: %w", rec.CalcKey, err)
		}
		if rec.Data == nil {
			rec.Data = desk.CalcData{}
		}
	}
	return &rec, nil
}
