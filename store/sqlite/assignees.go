package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/warp/clientdesk/desk"
)

// =============================================================================
// ASSIGNEES
// =============================================================================

const assigneeColumns = `id, client_id, name, email, created_at`

// ListAssignees returns a client's assignees ordered by name.
func (s *Store) ListAssignees(ctx context.Context, clientID int64) ([]desk.Assignee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+assigneeColumns+`
		FROM assignees
		WHERE client_id = ?
		ORDER BY name`,
		clientID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignees := []desk.Assignee{}
	for rows.Next() {
		a, err := scanAssignee(rows)
		if err != nil {
			return nil, err
		}
		assignees = append(assignees, *a)
	}
	return assignees, rows.Err()
}

// AssigneesByOwner returns assignees of clients owned by owner, with the
// client name, ordered by assignee name.
func (s *Store) AssigneesByOwner(ctx context.Context, owner string) ([]desk.AssigneeWithClient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.client_id, a.name, a.email, a.created_at, c.name
		FROM assignees a
		JOIN clients c ON c.id = a.client_id
		WHERE c.owner = ?
		ORDER BY a.name`,
		owner,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []desk.AssigneeWithClient{}
	for rows.Next() {
		var a desk.AssigneeWithClient
		var createdAt string
		if err := rows.Scan(&a.ID, &a.ClientID, &a.Name, &a.Email, &createdAt, &a.ClientName); err != nil {
			return nil, err
		}
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAssignee returns an assignee, or nil if it does not exist.
func (s *Store) GetAssignee(ctx context.Context, id int64) (*desk.Assignee, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assigneeColumns+` FROM assignees WHERE id = ?`, id)
	a, err := scanAssignee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// InsertAssignee persists an assignee and returns the stored row.
func (s *Store) InsertAssignee(ctx context.Context, clientID int64, name, email string) (*desk.Assignee, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO assignees (client_id, name, email)
		VALUES (?, ?, ?)
		RETURNING `+assigneeColumns,
		clientID, name, email,
	)
	return scanAssignee(row)
}

func scanAssignee(row rowScanner) (*desk.Assignee, error) {
	var a desk.Assignee
	var createdAt string
	if err := row.Scan(&a.ID, &a.ClientID, &a.Name, &a.Email, &createdAt); err != nil {
		return nil, err
	}
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}

// =============================================================================
// WORKPAPERS
// =============================================================================

const workpaperColumns = `id, assignee_id, title, status, notes, created_at`

// ListWorkpapers returns an assignee's workpapers, newest first.
func (s *Store) ListWorkpapers(ctx context.Context, assigneeID int64) ([]desk.Workpaper, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+workpaperColumns+`
		FROM workpapers
		WHERE assignee_id = ?
		ORDER BY id DESC`,
		assigneeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	papers := []desk.Workpaper{}
	for rows.Next() {
		wp, err := scanWorkpaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, *wp)
	}
	return papers, rows.Err()
}

// InsertWorkpaper persists a workpaper and returns the stored row.
func (s *Store) InsertWorkpaper(ctx context.Context, assigneeID int64, title, notes string, status desk.WorkpaperStatus) (*desk.Workpaper, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO workpapers (assignee_id, title, status, notes)
		VALUES (?, ?, ?, ?)
		RETURNING `+workpaperColumns,
		assigneeID, title, string(status), notes,
	)
	return scanWorkpaper(row)
}

// SetWorkpaperStatus updates a workpaper's status and returns the row, or
// nil if it does not exist.
func (s *Store) SetWorkpaperStatus(ctx context.Context, id int64, status desk.WorkpaperStatus) (*desk.Workpaper, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE workpapers SET status = ?
		WHERE id = ?
		RETURNING `+workpaperColumns,
		string(status), id,
	)
	wp, err := scanWorkpaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return wp, err
}

func scanWorkpaper(row rowScanner) (*desk.Workpaper, error) {
	var wp desk.Workpaper
	var status, createdAt string
	if err := row.Scan(&wp.ID, &wp.AssigneeID, &wp.Title, &status, &wp.Notes, &createdAt); err != nil {
		return nil, err
	}
	wp.Status = desk.WorkpaperStatus(status)
	wp.CreatedAt = parseTime(createdAt)
	return &wp, nil
}
