package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
)

// wallpaperColumns must match the scan order in scanWallpaper.
// The likes column aggregates wallpaper_likes into a comma separated list.
const wallpaperColumns = `w.id, w.created_at, w.updated_at, w.title, w.tags, w.image_url,
	w.asset_id, w.blur_hash, w.width, w.height, w.category, w.downloads, w.artist_id, w.status,
	(SELECT group_concat(l.user_id, ',') FROM
		(SELECT user_id FROM wallpaper_likes WHERE wallpaper_id = w.id ORDER BY created_at, user_id) l)`

func scanWallpaper(scanner interface{ Scan(dest ...any) error }, extra ...any) (*domain.Wallpaper, error) {
	var (
		w         domain.Wallpaper
		createdAt string
		updatedAt string
		tags      string
		status    string
		likes     sql.NullString
	)

	dest := []any{
		&w.ID, &createdAt, &updatedAt, &w.Title, &tags, &w.ImageURL,
		&w.AssetID, &w.BlurHash, &w.Width, &w.Height, &w.Category, &w.Downloads, &w.ArtistID, &status,
		&likes,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if w.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if w.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	w.Tags = strings.Fields(tags)
	if w.Tags == nil {
		w.Tags = []string{}
	}
	w.Status = domain.Status(status)
	w.Likes = splitIDs(likes)
	return &w, nil
}

// CreateWallpaper inserts a wallpaper. Rejected is a decision, never a stored state.
func (s *Store) CreateWallpaper(ctx context.Context, w *domain.Wallpaper) error {
	if w.Status == domain.StatusRejected {
		return store.ErrInvalidInput.WithMessage("rejected wallpapers are not stored")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wallpapers (
			id, created_at, updated_at, title, tags, image_url, asset_id, blur_hash,
			width, height, category, downloads, artist_id, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID,
		formatTime(w.CreatedAt),
		formatTime(w.UpdatedAt),
		w.Title,
		strings.Join(w.Tags, " "),
		w.ImageURL,
		w.AssetID,
		w.BlurHash,
		w.Width,
		w.Height,
		w.Category,
		w.Downloads,
		w.ArtistID,
		string(w.Status),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return store.ErrNotFound.WithMessage("artist not found")
	}
	return err
}

// GetWallpaper retrieves a wallpaper in any state.
func (s *Store) GetWallpaper(ctx context.Context, id string) (*domain.Wallpaper, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+wallpaperColumns+` FROM wallpapers w WHERE w.id = ?`, id)
	w, err := scanWallpaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return w, err
}

const approvedWithArtist = `SELECT ` + wallpaperColumns + `, u.id, u.username, u.profile_pic
	FROM wallpapers w JOIN users u ON u.id = w.artist_id
	WHERE w.status = 'approved'`

// ListApprovedWallpapers returns approved wallpapers, newest first.
func (s *Store) ListApprovedWallpapers(ctx context.Context, filter store.WallpaperFilter) ([]domain.WallpaperWithArtist, error) {
	query := approvedWithArtist
	var args []any

	if filter.Search != "" {
		query += ` AND w.title LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}
	if filter.Category != "" && filter.Category != domain.AllCategories {
		query += ` AND w.category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY w.created_at DESC, w.id`

	return s.queryWithArtist(ctx, query, args...)
}

// GetApprovedWallpapers loads approved wallpapers by id, preserving the order of ids.
// Unknown or unapproved ids are skipped.
func (s *Store) GetApprovedWallpapers(ctx context.Context, ids []string) ([]domain.WallpaperWithArtist, error) {
	if len(ids) == 0 {
		return []domain.WallpaperWithArtist{}, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	found, err := s.queryWithArtist(ctx, approvedWithArtist+` AND w.id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.WallpaperWithArtist, len(found))
	for _, w := range found {
		byID[w.ID] = w
	}
	out := make([]domain.WallpaperWithArtist, 0, len(found))
	for _, id := range ids {
		if w, ok := byID[id]; ok {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *Store) queryWithArtist(ctx context.Context, query string, args ...any) ([]domain.WallpaperWithArtist, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.WallpaperWithArtist{}
	for rows.Next() {
		var a domain.ArtistSummary
		w, err := scanWallpaper(rows, &a.ID, &a.Username, &a.ProfilePic)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.WallpaperWithArtist{Wallpaper: *w, Artist: a})
	}
	return out, rows.Err()
}

// ListWallpapersByArtist returns every wallpaper owned by artistID, newest first.
func (s *Store) ListWallpapersByArtist(ctx context.Context, artistID string) ([]*domain.Wallpaper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+wallpaperColumns+` FROM wallpapers w WHERE w.artist_id = ? ORDER BY w.created_at DESC, w.id`,
		artistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Wallpaper{}
	for rows.Next() {
		w, err := scanWallpaper(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ListPendingWallpapers returns the moderation queue, oldest first, with uploader contact.
func (s *Store) ListPendingWallpapers(ctx context.Context) ([]domain.PendingWallpaper, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+wallpaperColumns+`, u.id, u.username, u.email
		FROM wallpapers w JOIN users u ON u.id = w.artist_id
		WHERE w.status = 'pending'
		ORDER BY w.created_at, w.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.PendingWallpaper{}
	for rows.Next() {
		var c domain.UserContact
		w, err := scanWallpaper(rows, &c.ID, &c.Username, &c.Email)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.PendingWallpaper{Wallpaper: *w, Uploader: c})
	}
	return out, rows.Err()
}

// SetWallpaperStatus moves a wallpaper to a stored state (pending or approved).
func (s *Store) SetWallpaperStatus(ctx context.Context, id string, status domain.Status) error {
	if status == domain.StatusRejected {
		return store.ErrInvalidInput.WithMessage("rejected wallpapers are deleted, not stored")
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE wallpapers SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// DeleteWallpaper removes a wallpaper and its likes.
func (s *Store) DeleteWallpaper(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM wallpaper_likes WHERE wallpaper_id = ?`, id); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM wallpapers WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return expectOneRow(result)
	})
}

// ToggleLike adds userID's like when absent and removes it otherwise.
// Returns the ids of users currently liking the wallpaper.
func (s *Store) ToggleLike(ctx context.Context, wallpaperID, userID string) ([]string, error) {
	var likes []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM wallpapers WHERE id = ?`, wallpaperID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM wallpaper_likes WHERE wallpaper_id = ? AND user_id = ?`, wallpaperID, userID)
		if err != nil {
			return err
		}
		if removed, err := result.RowsAffected(); err != nil {
			return err
		} else if removed == 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO wallpaper_likes (wallpaper_id, user_id, created_at) VALUES (?, ?, ?)`,
				wallpaperID, userID, formatTime(time.Now())); err != nil {
				return err
			}
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT user_id FROM wallpaper_likes WHERE wallpaper_id = ? ORDER BY created_at, user_id`, wallpaperID)
		if err != nil {
			return err
		}
		defer rows.Close()
		likes, err = scanStrings(rows)
		return err
	})
	return likes, err
}

// IncrementDownloads bumps the download counter and returns the new value.
func (s *Store) IncrementDownloads(ctx context.Context, id string) (int, error) {
	var downloads int
	err := s.db.QueryRowContext(ctx,
		`UPDATE wallpapers SET downloads = downloads + 1 WHERE id = ? RETURNING downloads`, id).Scan(&downloads)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	return downloads, err
}
