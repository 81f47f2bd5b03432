/*
store.go - Persistence interfaces for clientdesk services

PURPOSE:
  Defines what each service needs from storage. Services accept these
  interfaces; store/sqlite.Store implements all of them.

NOT-FOUND CONVENTION:
  Getters return (nil, nil) when the row does not exist. Mutations that
  target a single row report whether a row was affected. Services turn
  both into typed NotFound errors, so stores never need to know about the
  domain error taxonomy.

SEE ALSO:
  - store/sqlite: Concrete implementation
*/
package desk

import (
	"context"
	"time"
)

// IdeaStore persists ideas.
type IdeaStore interface {
	ListIdeas(ctx context.Context) ([]Idea, error)
	InsertIdea(ctx context.Context, title, description string, score int) (*Idea, error)
	DeleteIdea(ctx context.Context, id int64) (bool, error)
}

// ClientStore persists clients and their tasks.
type ClientStore interface {
	ListClients(ctx context.Context) ([]Client, error)
	SearchClients(ctx context.Context, substr string) ([]Client, error)
	GetClient(ctx context.Context, id int64) (*Client, error)
	SetClientOwner(ctx context.Context, id int64, owner string) (bool, error)
	ClientsByOwner(ctx context.Context, owner string) ([]Client, error)
	ClientsWithTaskStatus(ctx context.Context, status TaskStatus) ([]Client, error)
	CountTasksByStatus(ctx context.Context, status TaskStatus) (int, error)

	ListTasks(ctx context.Context, clientID int64) ([]Task, error)
	InsertTask(ctx context.Context, clientID int64, title string, status TaskStatus, due *time.Time) (*Task, error)
}

// AssigneeStore persists assignees and their workpapers.
type AssigneeStore interface {
	GetClient(ctx context.Context, id int64) (*Client, error)

	ListAssignees(ctx context.Context, clientID int64) ([]Assignee, error)
	AssigneesByOwner(ctx context.Context, owner string) ([]AssigneeWithClient, error)
	GetAssignee(ctx context.Context, id int64) (*Assignee, error)
	InsertAssignee(ctx context.Context, clientID int64, name, email string) (*Assignee, error)

	ListWorkpapers(ctx context.Context, assigneeID int64) ([]Workpaper, error)
	InsertWorkpaper(ctx context.Context, assigneeID int64, title, notes string, status WorkpaperStatus) (*Workpaper, error)
	SetWorkpaperStatus(ctx context.Context, id int64, status WorkpaperStatus) (*Workpaper, error)
}

// CalcStore persists calculator payloads.
type CalcStore interface {
	GetAssignee(ctx context.Context, id int64) (*Assignee, error)
	GetCalc(ctx context.Context, assigneeID int64, key string) (*CalcRecord, error)
	UpsertCalc(ctx context.Context, assigneeID int64, key string, data CalcData) (*CalcRecord, error)
}

// Store is the union of everything the services need.
type Store interface {
	IdeaStore
	ClientStore
	AssigneeStore
	CalcStore
}
