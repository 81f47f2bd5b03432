package desk

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of task due dates.
const DateLayout = "2006-01-02"

// ClientService manages clients, their owners and their tasks.
type ClientService struct {
	store ClientStore
}

// NewClientService creates a ClientService backed by the given store.
func NewClientService(store ClientStore) *ClientService {
	return &ClientService{store: store}
}

// List returns all clients ordered by name.
func (s *ClientService) List(ctx context.Context) ([]Client, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// Search returns clients whose name contains query. An empty query matches
// every client.
func (s *ClientService) Search(ctx context.Context, query string) ([]Client, error) {
	clients, err := s.store.SearchClients(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("search clients: %w", err)
	}
	return clients, nil
}

// Assign overwrites a client's owner. An empty owner unassigns the client.
func (s *ClientService) Assign(ctx context.Context, clientID int64, owner string) error {
	updated, err := s.store.SetClientOwner(ctx, clientID, strings.TrimSpace(owner))
	if err != nil {
		return fmt.Errorf("assign client %d: %w", clientID, err)
	}
	if !updated {
		return notFound("client", clientID)
	}
	return nil
}

// HomeOverview summarizes the clients owned by owner and the clients with
// work awaiting. The awaiting count is over tasks, not clients.
func (s *ClientService) HomeOverview(ctx context.Context, owner string) (*HomeOverview, error) {
	mine, err := s.store.ClientsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("clients by owner: %w", err)
	}
	awaiting, err := s.store.ClientsWithTaskStatus(ctx, TaskAwaiting)
	if err != nil {
		return nil, fmt.Errorf("clients with awaiting tasks: %w", err)
	}
	count, err := s.store.CountTasksByStatus(ctx, TaskAwaiting)
	if err != nil {
		return nil, fmt.Errorf("count awaiting tasks: %w", err)
	}

	return &HomeOverview{
		MyClients:          mine,
		AwaitingClients:    awaiting,
		MyClientsCount:     len(mine),
		AwaitingTasksCount: count,
	}, nil
}

// ListTasks returns a client's tasks.
func (s *ClientService) ListTasks(ctx context.Context, clientID int64) ([]Task, error) {
	tasks, err := s.store.ListTasks(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask adds a task to a client. Status defaults to awaiting; dueDate is
// optional and must be YYYY-MM-DD when present.
func (s *ClientService) CreateTask(ctx context.Context, clientID int64, title string, status TaskStatus, dueDate string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, Invalid("title", "Title is required")
	}
	if status == "" {
		status = TaskAwaiting
	}
	if !status.Valid() {
		return nil, Invalid("status", fmt.Sprintf("unknown task status %q", status))
	}

	var due *time.Time
	if dueDate = strings.TrimSpace(dueDate); dueDate != "" {
		t, err := time.Parse(DateLayout, dueDate)
		if err != nil {
			return nil, Invalid("due_date", "use YYYY-MM-DD")
		}
		due = &t
	}

	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("get client %d: %w", clientID, err)
	}
	if client == nil {
		return nil, notFound("client", clientID)
	}

	task, err := s.store.InsertTask(ctx, clientID, title, status, due)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}
