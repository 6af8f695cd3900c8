package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/templui/travelmap/internal/config"
	"github.com/templui/travelmap/internal/metrics"
)

// NewStore builds the session store selected by SESSION_STORE.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.SessionStore {
	case "", "memory":
		slog.Info("session store initialized", "type", "memory", "ttl", cfg.SessionTTL)
		return NewMemoryStore(cfg.SessionTTL), nil
	case "badger":
		store, err := OpenBadgerStore(cfg.SessionBadgerPath, cfg.SessionTTL)
		if err != nil {
			return nil, err
		}
		slog.Info("session store initialized", "type", "badger", "path", cfg.SessionBadgerPath, "ttl", cfg.SessionTTL)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

// RunSweeper removes expired sessions every interval until ctx is done.
func RunSweeper(ctx context.Context, store Store, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.SweepExpired(ctx)
			if err != nil {
				slog.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				metrics.SessionsSwept.Add(float64(n))
				slog.Debug("expired sessions swept", "count", n)
			}
		}
	}
}
