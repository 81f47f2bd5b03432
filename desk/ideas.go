package desk

import (
	"context"
	"fmt"
	"strings"
)

// IdeaService manages scored ideas.
type IdeaService struct {
	store IdeaStore
}

// NewIdeaService creates an IdeaService backed by the given store.
func NewIdeaService(store IdeaStore) *IdeaService {
	return &IdeaService{store: store}
}

// List returns all ideas, newest first.
func (s *IdeaService) List(ctx context.Context) ([]Idea, error) {
	ideas, err := s.store.ListIdeas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ideas: %w", err)
	}
	return ideas, nil
}

// Create trims both fields, scores the description and persists the idea.
// The score is never caller-supplied.
func (s *IdeaService) Create(ctx context.Context, title, description string) (*Idea, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return nil, Invalid("title", "Title is required")
	}

	idea, err := s.store.InsertIdea(ctx, title, description, ComputeScore(description))
	if err != nil {
		return nil, fmt.Errorf("insert idea: %w", err)
	}
	return idea, nil
}

// Delete removes an idea.
func (s *IdeaService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteIdea(ctx, id)
	if err != nil {
		return fmt.Errorf("delete idea %d: %w", id, err)
	}
	if !deleted {
		return notFound("idea", id)
	}
	return nil
}
