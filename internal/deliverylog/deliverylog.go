// Package deliverylog persists push delivery reports in Badger.
package deliverylog

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/wallpaperhub/wallpaper-server/internal/domain"
)

// Key prefixes. Index keys use inverted timestamps so forward iteration
// yields the newest reports first.
const (
	reportPrefix             = "report:"
	reportIdxTimePrefix      = "report:idx:time:"
	reportIdxWallpaperPrefix = "report:idx:wallpaper:"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("delivery report not found")

// Log is an append-only report log.
type Log struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens or creates the log at path. An empty path keeps the log in memory.
func Open(path string, logger *slog.Logger) (*Log, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = path != "" // Reports survive crashes
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open delivery log: %w", err)
	}

	logger.Info("delivery log opened", "path", path, "in_memory", path == "")
	return &Log{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

func invertedTimestamp(t time.Time) string {
	return fmt.Sprintf("%019d", math.MaxInt64-t.UnixNano())
}

// Record stores a report together with its indexes in one transaction.
func (l *Log) Record(ctx context.Context, r *domain.DeliveryReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ID == "" {
		return errors.New("report id is required")
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	ts := invertedTimestamp(r.StartedAt)

	return l.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(reportPrefix+r.ID), data); err != nil {
			return fmt.Errorf("setting primary key: %w", err)
		}
		if err := txn.Set([]byte(reportIdxTimePrefix+ts+":"+r.ID), nil); err != nil {
			return fmt.Errorf("setting time index: %w", err)
		}
		if r.WallpaperID != "" {
			key := reportIdxWallpaperPrefix + r.WallpaperID + ":" + ts + ":" + r.ID
			if err := txn.Set([]byte(key), nil); err != nil {
				return fmt.Errorf("setting wallpaper index: %w", err)
			}
		}
		return nil
	})
}

// Get loads a report by id.
func (l *Log) Get(ctx context.Context, id string) (*domain.DeliveryReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var r *domain.DeliveryReport
	err := l.db.View(func(txn *badger.Txn) error {
		var err error
		r, err = getInTxn(txn, id)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	return r, err
}

// Recent returns up to limit reports, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]*domain.DeliveryReport, error) {
	return l.scan(ctx, reportIdxTimePrefix, limit)
}

// ForWallpaper returns the reports of a wallpaper's approvals, newest first.
func (l *Log) ForWallpaper(ctx context.Context, wallpaperID string, limit int) ([]*domain.DeliveryReport, error) {
	return l.scan(ctx, reportIdxWallpaperPrefix+wallpaperID+":", limit)
}

func (l *Log) scan(ctx context.Context, prefix string, limit int) ([]*domain.DeliveryReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reports := []*domain.DeliveryReport{}
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Key-only index
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if limit > 0 && len(reports) >= limit {
				break
			}
			id := idFromIndexKey(string(it.Item().Key()))
			r, err := getInTxn(txn, id)
			if err != nil {
				l.logger.Warn("dangling delivery index", "key", string(it.Item().Key()), "error", err)
				continue
			}
			reports = append(reports, r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning delivery reports: %w", err)
	}
	return reports, nil
}

func getInTxn(txn *badger.Txn, id string) (*domain.DeliveryReport, error) {
	item, err := txn.Get([]byte(reportPrefix + id))
	if err != nil {
		return nil, err
	}
	var r domain.DeliveryReport
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// idFromIndexKey returns the segment after the last colon.
func idFromIndexKey(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			return key[i+1:]
		}
	}
	return key
}
