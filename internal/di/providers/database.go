package providers

import (
	"github.com/samber/do/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/config"
	"github.com/wallpaperhub/wallpaper-server/internal/deliverylog"
	"github.com/wallpaperhub/wallpaper-server/internal/logger"
	"github.com/wallpaperhub/wallpaper-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the sqlite store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Component("store"))
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// DeliveryLogHandle wraps the delivery report log with shutdown capability.
type DeliveryLogHandle struct {
	*deliverylog.Log
}

// Shutdown implements do.Shutdownable.
func (h *DeliveryLogHandle) Shutdown() error {
	return h.Close()
}

// ProvideDeliveryLog provides the badger-backed push delivery log.
func ProvideDeliveryLog(i do.Injector) (*DeliveryLogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	reports, err := deliverylog.Open(cfg.DeliveryLogPath(), log.Component("deliverylog"))
	if err != nil {
		return nil, err
	}

	log.Info("Delivery log opened", "path", cfg.DeliveryLogPath())

	return &DeliveryLogHandle{Log: reports}, nil
}
