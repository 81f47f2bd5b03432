/*
seed.go - Demo data for a fresh database

PURPOSE:
  Populates an empty database with a small, fixed set of clients, tasks and
  assignees so the home page has something to show.

WHAT GETS CREATED:
  Clients:   Contoso Ltd (demo), Fabrikam Inc (demo), Northwind Traders,
             Adventure Works, Globex Corp (demo)
  Tasks:     five, on Contoso, Fabrikam and Globex; two are awaiting
  Assignees: one per each of the first three clients, named after the
             client ("Contoso Ltd Contact", contoso@example.com)

IDEMPOTENCE:
  Runs only when the clients table is empty, inside one SQL transaction.
  Seeding an already populated database is a no-op.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/warp/clientdesk/desk"
)

type seedClient struct {
	name  string
	owner string
}

type seedTask struct {
	client string
	title  string
	status desk.TaskStatus
}

var seedClients = []seedClient{
	{"Contoso Ltd", "demo"},
	{"Fabrikam Inc", "demo"},
	{"Northwind Traders", ""},
	{"Adventure Works", ""},
	{"Globex Corp", "demo"},
}

var seedTasks = []seedTask{
	{"Contoso Ltd", "Security review", desk.TaskAwaiting},
	{"Contoso Ltd", "Q2 roadmap sync", desk.TaskInProgress},
	{"Fabrikam Inc", "Cost optimization plan", desk.TaskAwaiting},
	{"Globex Corp", "Performance tuning", desk.TaskDone},
	{"Globex Corp", "Reliability audit", desk.TaskInProgress},
}

// seedAssigneeCount is how many of the leading seed clients get an assignee.
const seedAssigneeCount = 3

// SeedAssignee derives the demo assignee name and email from a client name.
func SeedAssignee(clientName string) (name, email string) {
	first := strings.ToLower(strings.Fields(clientName)[0])
	return clientName + " Contact", first + "@example.com"
}

// Seed inserts demo data if the clients table is empty. It reports whether
// anything was inserted.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	seeded := false
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&count); err != nil {
			return fmt.Errorf("count clients: %w", err)
		}
		if count > 0 {
			return nil
		}

		ids := make(map[string]int64, len(seedClients))
		for _, c := range seedClients {
			var id int64
			err := tx.QueryRowContext(ctx,
				`INSERT INTO clients (name, owner) VALUES (?, ?) RETURNING id`,
				c.name, c.owner,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("seed client %s: %w", c.name, err)
			}
			ids[c.name] = id
		}

		for _, t := range seedTasks {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tasks (client_id, title, status) VALUES (?, ?, ?)`,
				ids[t.client], t.title, string(t.status),
			); err != nil {
				return fmt.Errorf("seed task %s: %w", t.title, err)
			}
		}

		for _, c := range seedClients[:seedAssigneeCount] {
			name, email := SeedAssignee(c.name)
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO assignees (client_id, name, email) VALUES (?, ?, ?)`,
				ids[c.name], name, email,
			); err != nil {
				return fmt.Errorf("seed assignee %s: %w", name, err)
			}
		}

		seeded = true
		return nil
	})
	return seeded, err
}
