package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/warp/clientdesk/desk"
)

// =============================================================================
// CLIENTS
// =============================================================================

const clientColumns = `id, name, owner, created_at`

// ListClients returns all clients ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]desk.Client, error) {
	return s.queryClients(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name`)
}

// SearchClients returns clients whose name contains substr. Matching follows
// SQLite LIKE, which ignores ASCII case.
func (s *Store) SearchClients(ctx context.Context, substr string) ([]desk.Client, error) {
	return s.queryClients(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE name LIKE ? ESCAPE '\'
		ORDER BY name`,
		likeSubstring(substr),
	)
}

// GetClient returns a client, or nil if it does not exist.
func (s *Store) GetClient(ctx context.Context, id int64) (*desk.Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// SetClientOwner overwrites a client's owner, reporting whether it existed.
func (s *Store) SetClientOwner(ctx context.Context, id int64, owner string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE clients SET owner = ? WHERE id = ?`, owner, id)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// ClientsByOwner returns the clients owned by owner, ordered by name.
func (s *Store) ClientsByOwner(ctx context.Context, owner string) ([]desk.Client, error) {
	return s.queryClients(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE owner = ?
		ORDER BY name`,
		owner,
	)
}

// ClientsWithTaskStatus returns each client having at least one task in
// status, once, ordered by name.
func (s *Store) ClientsWithTaskStatus(ctx context.Context, status desk.TaskStatus) ([]desk.Client, error) {
	return s.queryClients(ctx, `
		SELECT DISTINCT c.id, c.name, c.owner, c.created_at
		FROM clients c
		JOIN tasks t ON t.client_id = c.id
		WHERE t.status = ?
		ORDER BY c.name`,
		string(status),
	)
}

func (s *Store) queryClients(ctx context.Context, query string, args ...any) ([]desk.Client, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []desk.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

func scanClient(row rowScanner) (*desk.Client, error) {
	var c desk.Client
	var createdAt string
	if err := row.Scan(&c.ID, &c.Name, &c.Owner, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

// =============================================================================
// TASKS
// =============================================================================

const taskColumns = `id, client_id, title, status, due_date`

// CountTasksByStatus counts tasks in status across all clients.
func (s *Store) CountTasksByStatus(ctx context.Context, status desk.TaskStatus) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE status = ?`, string(status)).Scan(&n)
	return n, err
}

// ListTasks returns a client's tasks in creation order.
func (s *Store) ListTasks(ctx context.Context, clientID int64) ([]desk.Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE client_id = ? ORDER BY id`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []desk.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// InsertTask persists a task and returns the stored row.
func (s *Store) InsertTask(ctx context.Context, clientID int64, title string, status desk.TaskStatus, due *time.Time) (*desk.Task, error) {
	var dueDate sql.NullString
	if due != nil {
		dueDate = nullString(due.Format(desk.DateLayout))
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO tasks (client_id, title, status, due_date)
		VALUES (?, ?, ?, ?)
		RETURNING `+taskColumns,
		clientID, title, string(status), dueDate,
	)
	return scanTask(row)
}

func scanTask(row rowScanner) (*desk.Task, error) {
	var t desk.Task
	var status string
	var dueDate sql.NullString
	if err := row.Scan(&t.ID, &t.ClientID, &t.Title, &status, &dueDate); err != nil {
		return nil, err
	}
	t.Status = desk.TaskStatus(status)
	if dueDate.Valid {
		if d, err := time.Parse(desk.DateLayout, dueDate.String); err == nil {
			t.DueDate = &d
		}
	}
	return &t, nil
}
