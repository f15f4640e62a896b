package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
)

// ToggleFollow follows followeeID when the edge is absent and unfollows it
// otherwise. One row per edge keeps both sides of the graph consistent.
// Returns store.ErrNotFound when either user is missing.
func (s *Store) ToggleFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	var following bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE id IN (?, ?)`, followerID, followeeID).Scan(&n); err != nil {
			return err
		}
		if n != 2 {
			return store.ErrNotFound
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`, followerID, followeeID)
		if err != nil {
			return err
		}
		if removed, err := result.RowsAffected(); err != nil || removed > 0 {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)`,
			followerID, followeeID, formatTime(time.Now())); err != nil {
			return err
		}
		following = true
		return nil
	})
	return following, err
}

// FollowerIDs returns the ids of users following userID, in follow order.
func (s *Store) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT follower_id FROM follows WHERE followee_id = ? ORDER BY created_at, follower_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// FollowingIDs returns the ids of users that userID follows, in follow order.
func (s *Store) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT followee_id FROM follows WHERE follower_id = ? ORDER BY created_at, followee_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// Followers lists the users following userID.
// Returns store.ErrNotFound when userID does not exist.
func (s *Store) Followers(ctx context.Context, userID string) ([]domain.ArtistSummary, error) {
	return s.followSummaries(ctx, userID, `
		SELECT u.id, u.username, u.profile_pic
		FROM follows f JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = ?
		ORDER BY f.created_at, u.id`)
}

// Following lists the users userID follows.
func (s *Store) Following(ctx context.Context, userID string) ([]domain.ArtistSummary, error) {
	return s.followSummaries(ctx, userID, `
		SELECT u.id, u.username, u.profile_pic
		FROM follows f JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = ?
		ORDER BY f.created_at, u.id`)
}

func (s *Store) followSummaries(ctx context.Context, userID, query string) ([]domain.ArtistSummary, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ArtistSummary{}
	for rows.Next() {
		var a domain.ArtistSummary
		if err := rows.Scan(&a.ID, &a.Username, &a.ProfilePic); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ResolveAudience loads an artist together with the registered push tokens
// of their followers. Followers without a token are skipped.
func (s *Store) ResolveAudience(ctx context.Context, artistID string) (*domain.Audience, error) {
	artist, err := s.GetUser(ctx, artistID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.push_token
		FROM follows f JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = ? AND u.push_token IS NOT NULL AND u.push_token <> ''
		ORDER BY f.created_at, u.id`, artistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens, err := scanStrings(rows)
	if err != nil {
		return nil, err
	}
	return &domain.Audience{Artist: artist, FollowerTokens: tokens}, nil
}
