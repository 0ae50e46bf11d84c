package controllers

import (
	"context"
	"net/http"

	"github.com/meshilogapp/meshilog-backend/api/responses"
	"github.com/meshilogapp/meshilog-backend/pkg/config"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthDeps lists the dependencies the readiness probe checks. Nil entries
// are skipped so partial wiring (sqlite dev mode without redis) stays ready.
type HealthDeps struct {
	DB      pinger
	Redis   pinger
	Storage pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Meshilog-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, deps HealthDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Meshilog-Env", cfg.App.Env)

		checks := map[string]string{}
		ready := true
		for name, dep := range map[string]pinger{"db": deps.DB, "redis": deps.Redis, "storage": deps.Storage} {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				checks[name] = "down"
				ready = false
				continue
			}
			checks[name] = "up"
		}

		status := "ready"
		code := http.StatusOK
		if !ready {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, code, map[string]any{"status": status, "checks": checks})
	}
}
