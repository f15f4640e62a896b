package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wallpaperhub/wallpaper-server/internal/cooldown"
	"github.com/wallpaperhub/wallpaper-server/internal/dispatch"
	"github.com/wallpaperhub/wallpaper-server/internal/domain"
	domainerrors "github.com/wallpaperhub/wallpaper-server/internal/errors"
	"github.com/wallpaperhub/wallpaper-server/internal/media"
	"github.com/wallpaperhub/wallpaper-server/internal/push"
	"github.com/wallpaperhub/wallpaper-server/internal/store"
)

// Notification defaults.
const (
	DefaultBroadcastTitle = "✨ ¡Nuevos Wallpapers!"
	DefaultBroadcastBody  = "Hemos subido arte nuevo. ¡Entra a descubrirlo!"

	// DefaultNotifyCooldown spaces follower notifications for one artist.
	DefaultNotifyCooldown = 10 * time.Minute

	screenExplore  = "Explorar"
	defaultSound   = "default"
	priorityHigh   = "high"
	defaultChannel = "default"

	recentDispatchesLimit = 50
)

// Dispatcher delivers push jobs. Enqueue hands a job to background
// workers; Deliver sends it before returning.
type Dispatcher interface {
	Enqueue(ctx context.Context, job dispatch.Job) error
	Deliver(ctx context.Context, job dispatch.Job) domain.DeliveryReport
}

// DeliveryReports reads back recorded deliveries.
type DeliveryReports interface {
	Recent(ctx context.Context, limit int) ([]*domain.DeliveryReport, error)
}

// ModerationService runs the admin moderation queue and push broadcasts.
type ModerationService struct {
	store      store.Store
	media      media.Backend
	wallpapers *WallpaperService
	gate       *cooldown.Gate
	dispatcher Dispatcher
	reports    DeliveryReports
	logger     *slog.Logger
	now        func() time.Time
}

// NewModerationService creates a new moderation service. gate decides when
// an artist's followers may be notified again.
func NewModerationService(
	store store.Store,
	media media.Backend,
	wallpapers *WallpaperService,
	gate *cooldown.Gate,
	dispatcher Dispatcher,
	reports DeliveryReports,
	logger *slog.Logger,
) *ModerationService {
	return &ModerationService{
		store:      store,
		media:      media,
		wallpapers: wallpapers,
		gate:       gate,
		dispatcher: dispatcher,
		reports:    reports,
		logger:     logger,
		now:        time.Now,
	}
}

// Decision describes what a moderation decision did.
type Decision struct {
	Message string        `json:"msg"`
	Status  domain.Status `json:"status"`
	// ArtistNotified is true when the artist's own confirmation was queued.
	ArtistNotified bool `json:"artistNotified"`
	// FollowersNotified counts follower messages queued; zero inside the cooldown.
	FollowersNotified int `json:"followersNotified"`
}

// BroadcastResult summarizes a broadcast.
type BroadcastResult struct {
	Message           string `json:"msg"`
	DevicesReached    int    `json:"devicesReached"`
	MessagesAttempted int    `json:"messagesAttempted"`
	Batches           int    `json:"batches"`
	FailedBatches     int    `json:"failedBatches"`
}

// Pending returns the moderation queue, oldest first.
func (s *ModerationService) Pending(ctx context.Context, adminID string) ([]domain.PendingWallpaper, error) {
	if _, err := requireAdmin(ctx, s.store, adminID); err != nil {
		return nil, err
	}

	pending, err := s.store.ListPendingWallpapers(ctx)
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to list pending wallpapers")
	}
	return pending, nil
}

// Decide approves or rejects a wallpaper.
//
// Rejection deletes the image and the record. Approval publishes the
// wallpaper, confirms to the artist and, when the artist's cooldown has
// elapsed, notifies their followers. Notifications are delivered in the
// background; their outcome never changes the result of the decision.
func (s *ModerationService) Decide(ctx context.Context, adminID, wallpaperID, action string) (*Decision, error) {
	if _, err := requireAdmin(ctx, s.store, adminID); err != nil {
		return nil, err
	}

	w, err := s.store.GetWallpaper(ctx, wallpaperID)
	if err != nil {
		return nil, storeError(err, "wallpaper")
	}

	status, ok := domain.ParseDecision(action)
	if !ok {
		return nil, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"action": "must be one of: approved rejected"})
	}

	if status == domain.StatusRejected {
		return s.reject(ctx, w)
	}
	return s.approve(ctx, w)
}

func (s *ModerationService) reject(ctx context.Context, w *domain.Wallpaper) (*Decision, error) {
	releaseAsset(ctx, s.media, s.logger, w.AssetID)

	if err := s.store.DeleteWallpaper(ctx, w.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("wallpaper not found")
		}
		return nil, domainerrors.Persistence(err, "failed to delete wallpaper")
	}
	// Only matters if it had been approved before.
	s.wallpapers.unindex(ctx, w.ID)

	s.logger.Info("wallpaper rejected", "wallpaper_id", w.ID, "artist_id", w.ArtistID)
	return &Decision{Message: "Wallpaper rechazado y eliminado", Status: domain.StatusRejected}, nil
}

func (s *ModerationService) approve(ctx context.Context, w *domain.Wallpaper) (*Decision, error) {
	decision := &Decision{Message: "Wallpaper aprobado y publicado", Status: domain.StatusApproved}

	if w.IsApproved() {
		s.logger.Debug("wallpaper already approved", "wallpaper_id", w.ID)
		return decision, nil
	}

	if err := s.store.SetWallpaperStatus(ctx, w.ID, domain.StatusApproved); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("wallpaper not found")
		}
		return nil, domainerrors.Persistence(err, "failed to approve wallpaper")
	}
	w.Status = domain.StatusApproved

	audience, err := s.store.ResolveAudience(ctx, w.ArtistID)
	if err != nil {
		// The wallpaper is published and searchable; only notifications are lost.
		s.logger.Error("failed to resolve audience", "wallpaper_id", w.ID, "artist_id", w.ArtistID, "error", err)
		s.wallpapers.indexApproved(ctx, w, s.artistUsername(ctx, w.ArtistID))
		return decision, nil
	}
	artist := audience.Artist
	s.wallpapers.indexApproved(ctx, w, artist.Username)

	var messages []push.Message
	if push.ValidAddress(artist.PushToken) {
		messages = append(messages, artistMessage(w, artist.PushToken))
		decision.ArtistNotified = true
	} else if artist.HasPushToken() {
		s.logger.Debug("dropping invalid push address", "user_id", artist.ID)
	}

	// firedAt stays zero unless the cooldown gate let follower messages through.
	var firedAt time.Time
	followerMessages := s.followerMessages(w, artist, audience.FollowerTokens)
	if len(followerMessages) > 0 {
		now := s.now()
		if s.gate.Allow(artist.ID, artist.LastNotificationSentAt, now) {
			messages = append(messages, followerMessages...)
			decision.FollowersNotified = len(followerMessages)
			firedAt = now
		} else {
			s.logger.Info("follower notification skipped, artist in cooldown",
				"artist_id", artist.ID,
				"wallpaper_id", w.ID,
				"followers", len(followerMessages),
				"cooldown", s.gate.Window(),
			)
		}
	}

	if len(messages) > 0 {
		job := dispatch.Job{
			Kind:        domain.DeliveryApproval,
			WallpaperID: w.ID,
			ArtistID:    artist.ID,
			Messages:    messages,
		}
		if err := s.dispatcher.Enqueue(ctx, job); err != nil {
			// Nothing was sent, so the next approval may notify followers again.
			s.logger.Error("failed to queue notifications", "wallpaper_id", w.ID, "error", err)
			if !firedAt.IsZero() {
				s.gate.Forget(artist.ID, firedAt)
			}
			decision.ArtistNotified = false
			decision.FollowersNotified = 0
		} else if !firedAt.IsZero() {
			if err := s.store.SetLastNotified(ctx, artist.ID, firedAt); err != nil {
				s.logger.Warn("failed to persist notification time", "artist_id", artist.ID, "error", err)
			}
		}
	}

	s.logger.Info("wallpaper approved",
		"wallpaper_id", w.ID,
		"artist_id", artist.ID,
		"artist_notified", decision.ArtistNotified,
		"followers_notified", decision.FollowersNotified,
	)
	return decision, nil
}

func (s *ModerationService) followerMessages(w *domain.Wallpaper, artist *domain.User, tokens []string) []push.Message {
	messages := make([]push.Message, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	dropped := 0
	for _, token := range tokens {
		if seen[token] || token == artist.PushToken {
			continue
		}
		seen[token] = true
		if !push.ValidAddress(token) {
			dropped++
			continue
		}
		messages = append(messages, push.Message{
			To:        token,
			Title:     "🖼️ Nuevo wallpaper de " + artist.Username,
			Body:      fmt.Sprintf("%q ya está disponible. ¡Entra a descubrirlo!", w.Title),
			Data:      map[string]string{"screen": screenExplore, "wallpaperId": w.ID},
			Sound:     defaultSound,
			Priority:  priorityHigh,
			ChannelID: defaultChannel,
		})
	}
	if dropped > 0 {
		s.logger.Debug("dropped invalid follower push addresses", "artist_id", artist.ID, "count", dropped)
	}
	return messages
}

// artistUsername is best effort; an empty name only weakens search by artist.
func (s *ModerationService) artistUsername(ctx context.Context, artistID string) string {
	u, err := s.store.GetUser(ctx, artistID)
	if err != nil {
		s.logger.Warn("failed to load artist for indexing", "artist_id", artistID, "error", err)
		return ""
	}
	return u.Username
}

func artistMessage(w *domain.Wallpaper, token string) push.Message {
	return push.Message{
		To:        token,
		Title:     "🎨 ¡Tu obra ya está publicada!",
		Body:      fmt.Sprintf("%q fue aprobada y ya es visible para todos.", w.Title),
		Data:      map[string]string{"screen": screenExplore, "wallpaperId": w.ID},
		Sound:     defaultSound,
		Priority:  priorityHigh,
		ChannelID: defaultChannel,
	}
}

// Broadcast sends one message to every distinct registered device.
// DevicesReached counts registered addresses; MessagesAttempted counts
// those the gateway would accept.
func (s *ModerationService) Broadcast(ctx context.Context, adminID, title, body string) (*BroadcastResult, error) {
	if _, err := requireAdmin(ctx, s.store, adminID); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultBroadcastTitle
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = DefaultBroadcastBody
	}

	tokens, err := s.store.DistinctPushTokens(ctx)
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to load push tokens")
	}
	tokens = distinctAddresses(tokens)
	if len(tokens) == 0 {
		return nil, domainerrors.Validation("no devices registered")
	}

	messages := make([]push.Message, 0, len(tokens))
	for _, token := range tokens {
		if !push.ValidAddress(token) {
			continue
		}
		messages = append(messages, push.Message{
			To:        token,
			Title:     title,
			Body:      body,
			Data:      map[string]string{"screen": screenExplore},
			Sound:     defaultSound,
			Priority:  priorityHigh,
			ChannelID: defaultChannel,
		})
	}
	if dropped := len(tokens) - len(messages); dropped > 0 {
		s.logger.Debug("dropped invalid push addresses from broadcast", "count", dropped)
	}

	var report domain.DeliveryReport
	if len(messages) > 0 {
		report = s.dispatcher.Deliver(ctx, dispatch.Job{Kind: domain.DeliveryBroadcast, Messages: messages})
	}

	s.logger.Info("broadcast sent",
		"admin_id", adminID,
		"devices", len(tokens),
		"messages", len(messages),
		"batches", report.Batches,
		"failed_batches", report.FailedBatches,
	)
	return &BroadcastResult{
		Message:           "Proceso completado con éxito",
		DevicesReached:    len(tokens),
		MessagesAttempted: len(messages),
		Batches:           report.Batches,
		FailedBatches:     report.FailedBatches,
	}, nil
}

// Dispatches lists the most recent delivery reports.
func (s *ModerationService) Dispatches(ctx context.Context, adminID string) ([]*domain.DeliveryReport, error) {
	if _, err := requireAdmin(ctx, s.store, adminID); err != nil {
		return nil, err
	}

	reports, err := s.reports.Recent(ctx, recentDispatchesLimit)
	if err != nil {
		return nil, domainerrors.Persistence(err, "failed to load delivery reports")
	}
	return reports, nil
}

// distinctAddresses trims and de-duplicates push addresses, dropping
// blanks and keeping first-seen order.
func distinctAddresses(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
