package sqlite

import (
	"context"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
)

// CreateFeedback stores a user report.
func (s *Store) CreateFeedback(ctx context.Context, f *domain.Feedback) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, created_at, updated_at, user_id, type, message)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, formatTime(f.CreatedAt), formatTime(f.UpdatedAt), f.UserID, string(f.Type), f.Message)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// ListFeedback returns all reports, newest first, with the author's contact.
func (s *Store) ListFeedback(ctx context.Context) ([]domain.FeedbackWithUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.created_at, f.updated_at, f.user_id, f.type, f.message,
			u.id, u.username, u.email
		FROM feedback f JOIN users u ON u.id = f.user_id
		ORDER BY f.created_at DESC, f.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.FeedbackWithUser{}
	for rows.Next() {
		var (
			fb                   domain.FeedbackWithUser
			createdAt, updatedAt string
			typ                  string
		)
		if err := rows.Scan(&fb.ID, &createdAt, &updatedAt, &fb.UserID, &typ, &fb.Message,
			&fb.User.ID, &fb.User.Username, &fb.User.Email); err != nil {
			return nil, err
		}
		if fb.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if fb.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		fb.Type = domain.FeedbackType(typ)
		out = append(out, fb)
	}
	return out, rows.Err()
}

// DeleteFeedback removes a report.
func (s *Store) DeleteFeedback(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM feedback WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}
