package sqlite

import (
	"context"

	"github.com/warp/clientdesk/desk"
)

const ideaColumns = `id, title, description, score, created_at`

// ListIdeas returns all ideas ordered by id descending.
func (s *Store) ListIdeas(ctx context.Context) ([]desk.Idea, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+ideaColumns+` FROM ideas ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ideas := []desk.Idea{}
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, *idea)
	}
	return ideas, rows.Err()
}

// InsertIdea persists an idea and returns the stored row.
func (s *Store) InsertIdea(ctx context.Context, title, description string, score int) (*desk.Idea, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO ideas (title, description, score)
		VALUES (?, ?, ?)
		RETURNING `+ideaColumns,
		title, description, score,
	)
	return scanIdea(row)
}

// DeleteIdea removes an idea, reporting whether a row matched.
func (s *Store) DeleteIdea(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ideas WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func scanIdea(row rowScanner) (*desk.Idea, error) {
	var idea desk.Idea
	var createdAt string
	if err := row.Scan(&idea.ID, &idea.Title, &idea.Description, &idea.Score, &createdAt); err != nil {
		return nil, err
	}
	idea.CreatedAt = parseTime(createdAt)
	return &idea, nil
}
