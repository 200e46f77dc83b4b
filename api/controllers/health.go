package controllers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/excommerce-backend/api/responses"
	"github.com/angelmondragon/excommerce-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/excommerce-backend/pkg/errors"
	"github.com/angelmondragon/excommerce-backend/pkg/logger"
)

const (
	envHeader    = "X-Excommerce-Env"
	readyTimeout = 2 * time.Second
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency concurrently and fails with 503 naming
// the ones that did not answer.
func HealthReady(cfg *config.Config, deps map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			failed []string
			g      errgroup.Group
		)
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			g.Go(func() error {
				if err := dep.Ping(ctx); err != nil {
					logg.Warn(logg.WithFields(r.Context(), map[string]any{"dependency": name, "error_detail": err.Error()}), "health.dependency_down")
					mu.Lock()
					failed = append(failed, name)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
		if len(failed) > 0 {
			sort.Strings(failed)
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
				WithDetails(map[string]any{"failed": failed}))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
