package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, created_at, updated_at, username, email, password_hash, role,
	profile_pic, profile_pic_id, instagram, facebook, twitter, tiktok, web,
	push_token, last_notification_sent_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u            domain.User
		createdAt    string
		updatedAt    string
		role         string
		pushToken    sql.NullString
		lastNotified sql.NullString
	)

	err := scanner.Scan(
		&u.ID,
		&createdAt,
		&updatedAt,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.ProfilePic,
		&u.ProfilePicID,
		&u.Instagram,
		&u.Facebook,
		&u.Twitter,
		&u.TikTok,
		&u.Web,
		&pushToken,
		&lastNotified,
	)
	if err != nil {
		return nil, err
	}

	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if u.LastNotificationSentAt, err = parseNullableTime(lastNotified); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.PushToken = pushToken.String

	return &u, nil
}

// CreateUser inserts a new user.
// Returns store.ErrAlreadyExists if the id, username or email is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.Role == "" {
		user.Role = domain.RoleArtist
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (
			id, created_at, updated_at, username, email, email_lower, password_hash, role,
			profile_pic, profile_pic_id, instagram, facebook, twitter, tiktok, web,
			push_token, last_notification_sent_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		user.Username,
		user.Email,
		normalizeEmail(user.Email),
		user.PasswordHash,
		string(user.Role),
		user.ProfilePic,
		user.ProfilePicID,
		user.Instagram,
		user.Facebook,
		user.Twitter,
		user.TikTok,
		user.Web,
		nullString(user.PushToken),
		nullTimeString(user.LastNotificationSentAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a user by case-insensitive email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUserWhere(ctx, "email_lower = ?", normalizeEmail(email))
}

// GetUserByUsername retrieves a user by exact username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUserWhere(ctx, "username = ?", username)
}

func (s *Store) getUserWhere(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUser writes the profile fields of an existing user.
// Push token and notification timestamp have dedicated setters and are not touched.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			updated_at = ?, username = ?, email = ?, email_lower = ?, password_hash = ?, role = ?,
			profile_pic = ?, profile_pic_id = ?,
			instagram = ?, facebook = ?, twitter = ?, tiktok = ?, web = ?
		WHERE id = ?`,
		formatTime(user.UpdatedAt),
		user.Username,
		user.Email,
		normalizeEmail(user.Email),
		user.PasswordHash,
		string(user.Role),
		user.ProfilePic,
		user.ProfilePicID,
		user.Instagram,
		user.Facebook,
		user.Twitter,
		user.TikTok,
		user.Web,
		user.ID,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// ListArtists returns up to limit users with the artist role, oldest first.
func (s *Store) ListArtists(ctx context.Context, limit int) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY created_at LIMIT ?`,
		string(domain.RoleArtist), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetPushToken assigns token to userID, releasing it from any other holder in
// the same transaction. An empty token clears the user's registration.
func (s *Store) SetPushToken(ctx context.Context, userID, token string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if token != "" {
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET push_token = NULL WHERE push_token = ? AND id <> ?`,
				token, userID); err != nil {
				return fmt.Errorf("release push token: %w", err)
			}
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE users SET push_token = ?, updated_at = ? WHERE id = ?`,
			nullString(token), formatTime(time.Now()), userID)
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		if err != nil {
			return fmt.Errorf("assign push token: %w", err)
		}
		return expectOneRow(result)
	})
}

// DistinctPushTokens returns every registered push token once.
func (s *Store) DistinctPushTokens(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT push_token FROM users WHERE push_token IS NOT NULL AND push_token <> '' ORDER BY push_token`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

// SetLastNotified records when an artist's followers were last notified.
func (s *Store) SetLastNotified(ctx context.Context, userID string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_notification_sent_at = ? WHERE id = ?`,
		formatTime(at), userID)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// expectOneRow maps "no rows affected" to store.ErrNotFound.
func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
