package providers

import (
	"sync"

	"github.com/samber/do/v2"

	"github.com/wallpaperhub/wallpaper-server/internal/config"
	"github.com/wallpaperhub/wallpaper-server/internal/cooldown"
	"github.com/wallpaperhub/wallpaper-server/internal/dispatch"
	"github.com/wallpaperhub/wallpaper-server/internal/logger"
	"github.com/wallpaperhub/wallpaper-server/internal/push"
	"github.com/wallpaperhub/wallpaper-server/internal/versionpolicy"
)

// PushClientHandle wraps the push gateway client with shutdown capability.
type PushClientHandle struct {
	*push.Client
}

// Shutdown implements do.Shutdownable.
func (h *PushClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvidePushClient provides the push gateway client.
func ProvidePushClient(i do.Injector) (*PushClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client, err := push.New(push.Config{
		URL:         cfg.Push.GatewayURL,
		AccessToken: cfg.Push.AccessToken,
		Timeout:     cfg.Push.SendTimeout,
	}, log.Component("push"))
	if err != nil {
		return nil, err
	}

	log.Info("Push client ready", "gateway", cfg.Push.GatewayURL)

	return &PushClientHandle{Client: client}, nil
}

// DispatcherHandle wraps the push dispatcher with shutdown capability.
type DispatcherHandle struct {
	*dispatch.Dispatcher
	wg sync.WaitGroup
}

// Shutdown implements do.Shutdownable. Queued jobs are delivered first.
func (h *DispatcherHandle) Shutdown() error {
	h.Stop()
	h.wg.Wait()
	return nil
}

// ProvideDispatcher provides the background push dispatcher and starts its workers.
func ProvideDispatcher(i do.Injector) (*DispatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*PushClientHandle](i)
	reports := do.MustInvoke[*DeliveryLogHandle](i)

	d := dispatch.New(dispatch.Config{
		BatchSize:   cfg.Push.BatchSize,
		SendTimeout: cfg.Push.SendTimeout,
		Workers:     2,
	}, client.Client, reports.Log, log.Component("dispatch"))
	d.Start()

	h := &DispatcherHandle{Dispatcher: d}

	// Failed deliveries are already persisted; surface them in the logs too.
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for report := range d.Results() {
			if !report.Delivered() {
				log.Warn("Push delivery incomplete",
					"report_id", report.ID,
					"kind", report.Kind,
					"wallpaper_id", report.WallpaperID,
					"failed_batches", report.FailedBatches,
					"batches", report.Batches,
				)
			}
		}
	}()

	return h, nil
}

// ProvideNotifyGate provides the follower notification cooldown gate.
func ProvideNotifyGate(i do.Injector) (*cooldown.Gate, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return cooldown.New(cfg.Push.Cooldown), nil
}

// VersionPolicyHandle wraps the version policy source with shutdown capability.
type VersionPolicyHandle struct {
	*versionpolicy.Source
}

// Shutdown implements do.Shutdownable.
func (h *VersionPolicyHandle) Shutdown() error {
	return h.Close()
}

// ProvideVersionPolicy loads the app version policy and reloads it on change.
func ProvideVersionPolicy(i do.Injector) (*VersionPolicyHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	source, err := versionpolicy.Open(cfg.Data.VersionPolicyFile, log.Component("versionpolicy"))
	if err != nil {
		return nil, err
	}

	if err := source.Watch(); err != nil {
		// The loaded policy still serves; only hot reload is lost.
		log.Warn("Version policy hot reload unavailable", "error", err)
	}

	return &VersionPolicyHandle{Source: source}, nil
}
