/*
types.go - Core entity types for clientdesk

PURPOSE:
  Defines the six persisted entities and the read-only aggregates built from
  them. These are storage-agnostic; store/sqlite maps them to tables.

OWNERSHIP:
  Client   owns Tasks and Assignees (cascade delete)
  Assignee owns Workpapers and CalcRecords (cascade delete)
  Idea     stands alone

LIFECYCLES:
  Task:      awaiting -> in_progress -> done
  Workpaper: draft -> review -> final

SEE ALSO:
  - store.go: Persistence interfaces
  - calc.go:  Calculator payload type
*/
package desk

import "time"

// =============================================================================
// STATUS ENUMS
// =============================================================================

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskAwaiting   TaskStatus = "awaiting"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskAwaiting, TaskInProgress, TaskDone:
		return true
	}
	return false
}

// WorkpaperStatus is the review state of a Workpaper.
type WorkpaperStatus string

const (
	WorkpaperDraft  WorkpaperStatus = "draft"
	WorkpaperReview WorkpaperStatus = "review"
	WorkpaperFinal  WorkpaperStatus = "final"
)

// Valid reports whether s is a known workpaper status.
func (s WorkpaperStatus) Valid() bool {
	switch s {
	case WorkpaperDraft, WorkpaperReview, WorkpaperFinal:
		return true
	}
	return false
}

// =============================================================================
// ENTITIES
// =============================================================================

// Idea is a scored free-text suggestion.
type Idea struct {
	ID          int64
	Title       string
	Description string
	Score       int
	CreatedAt   time.Time
}

// Client is a customer account. Owner is free text; "" means unassigned.
type Client struct {
	ID        int64
	Name      string
	Owner     string
	CreatedAt time.Time
}

// Task is a unit of work for a client.
type Task struct {
	ID       int64
	ClientID int64
	Title    string
	Status   TaskStatus
	DueDate  *time.Time
}

// Assignee is a staff member attached to one client.
type Assignee struct {
	ID        int64
	ClientID  int64
	Name      string
	Email     string
	CreatedAt time.Time
}

// AssigneeWithClient is an Assignee joined to its client's name.
type AssigneeWithClient struct {
	Assignee
	ClientName string
}

// AssigneeDetail is an Assignee together with its parent client.
type AssigneeDetail struct {
	Assignee
	Client Client
}

// Workpaper is a review artifact owned by an assignee.
type Workpaper struct {
	ID         int64
	AssigneeID int64
	Title      string
	Status     WorkpaperStatus
	Notes      string
	CreatedAt  time.Time
}

// CalcRecord is the stored payload of one calculator for one assignee.
// (AssigneeID, CalcKey) is unique.
type CalcRecord struct {
	ID         int64
	AssigneeID int64
	CalcKey    string
	Data       CalcData
	UpdatedAt  time.Time
}

// =============================================================================
// AGGREGATES (computed on demand, never persisted)
// =============================================================================

// HomeOverview is the landing-page summary for one owner.
//
// MyClientsCount counts clients; AwaitingTasksCount counts tasks across the
// whole system. They are independent.
type HomeOverview struct {
	MyClients          []Client
	AwaitingClients    []Client
	MyClientsCount     int
	AwaitingTasksCount int
}
