package desk

import (
	"context"
	"fmt"
	"strings"
)

// AssigneeService manages assignees and their workpapers.
type AssigneeService struct {
	store AssigneeStore
}

// NewAssigneeService creates an AssigneeService backed by the given store.
func NewAssigneeService(store AssigneeStore) *AssigneeService {
	return &AssigneeService{store: store}
}

// ListAssignees returns a client's assignees ordered by name.
func (s *AssigneeService) ListAssignees(ctx context.Context, clientID int64) ([]Assignee, error) {
	assignees, err := s.store.ListAssignees(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	return assignees, nil
}

// CreateAssignee adds an assignee to a client. Email is optional.
func (s *AssigneeService) CreateAssignee(ctx context.Context, clientID int64, name, email string) (*Assignee, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Invalid("name", "Name is required")
	}

	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("get client %d: %w", clientID, err)
	}
	if client == nil {
		return nil, notFound("client", clientID)
	}

	a, err := s.store.InsertAssignee(ctx, clientID, name, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("insert assignee: %w", err)
	}
	return a, nil
}

// MyAssignees returns the assignees of every client owned by owner.
func (s *AssigneeService) MyAssignees(ctx context.Context, owner string) ([]AssigneeWithClient, error) {
	assignees, err := s.store.AssigneesByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("assignees by owner: %w", err)
	}
	return assignees, nil
}

// GetAssigneeDetail returns an assignee with its parent client.
//
// A missing parent client is reported as ErrClientNotFound rather than
// ErrAssigneeNotFound. Cascade deletes make it unreachable in practice.
func (s *AssigneeService) GetAssigneeDetail(ctx context.Context, id int64) (*AssigneeDetail, error) {
	a, err := s.store.GetAssignee(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get assignee %d: %w", id, err)
	}
	if a == nil {
		return nil, notFound("assignee", id)
	}

	client, err := s.store.GetClient(ctx, a.ClientID)
	if err != nil {
		return nil, fmt.Errorf("get client %d: %w", a.ClientID, err)
	}
	if client == nil {
		return nil, notFound("client", a.ClientID)
	}

	return &AssigneeDetail{Assignee: *a, Client: *client}, nil
}

// ListWorkpapers returns an assignee's workpapers, newest first.
func (s *AssigneeService) ListWorkpapers(ctx context.Context, assigneeID int64) ([]Workpaper, error) {
	papers, err := s.store.ListWorkpapers(ctx, assigneeID)
	if err != nil {
		return nil, fmt.Errorf("list workpapers: %w", err)
	}
	return papers, nil
}

// CreateWorkpaper adds a draft workpaper to an assignee.
func (s *AssigneeService) CreateWorkpaper(ctx context.Context, assigneeID int64, title, notes string) (*Workpaper, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, Invalid("title", "Title is required")
	}

	a, err := s.store.GetAssignee(ctx, assigneeID)
	if err != nil {
		return nil, fmt.Errorf("get assignee %d: %w", assigneeID, err)
	}
	if a == nil {
		return nil, notFound("assignee", assigneeID)
	}

	wp, err := s.store.InsertWorkpaper(ctx, assigneeID, title, notes, WorkpaperDraft)
	if err != nil {
		return nil, fmt.Errorf("insert workpaper: %w", err)
	}
	return wp, nil
}

// UpdateWorkpaperStatus moves a workpaper to another review state.
func (s *AssigneeService) UpdateWorkpaperStatus(ctx context.Context, id int64, status WorkpaperStatus) (*Workpaper, error) {
	if !status.Valid() {
		return nil, Invalid("status", fmt.Sprintf("unknown workpaper status %q", status))
	}

	wp, err := s.store.SetWorkpaperStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update workpaper %d: %w", id, err)
	}
	if wp == nil {
		return nil, notFound("workpaper", id)
	}
	return wp, nil
}
