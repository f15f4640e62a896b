package domain

import "time"

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleArtist is the default role; artists upload and follow.
	RoleArtist Role = "artist"
	// RoleAdmin moderates submissions and sends broadcasts.
	RoleAdmin Role = "admin"
)

// Socials holds the public social links shown on an artist profile.
// Empty strings mean "not set".
type Socials struct {
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
	Twitter   string `json:"twitter"`
	TikTok    string `json:"tiktok"`
	Web       string `json:"web"`
}

// User is an artist or admin account.
type User struct {
	Record
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	ProfilePic   string `json:"profilePic"`
	ProfilePicID string `json:"-"` // media asset handle for ProfilePic
	Socials
	// PushToken is the device address registered for notifications.
	// At most one user holds a given token.
	PushToken string `json:"-"`
	// LastNotificationSentAt is when followers were last notified about this
	// artist's work. Nil means never.
	LastNotificationSentAt *time.Time `json:"-"`
}

// IsAdmin returns true if the user has administrative privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPushToken reports whether a push address is registered.
func (u *User) HasPushToken() bool {
	return u.PushToken != ""
}

// ArtistSummary is the compact user view embedded in lists.
type ArtistSummary struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic"`
}

// Summary returns the compact view of u.
func (u *User) Summary() ArtistSummary {
	return ArtistSummary{ID: u.ID, Username: u.Username, ProfilePic: u.ProfilePic}
}

// UserContact identifies a user to admins.
type UserContact struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Audience is the push-address view of an artist and their followers,
// resolved when a wallpaper is approved.
type Audience struct {
	Artist         *User
	FollowerTokens []string
}
