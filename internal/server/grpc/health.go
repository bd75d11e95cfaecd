package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Overall is the health service name that aggregates every check.
const Overall = ""

var errNotChecked = errors.New("health not checked yet")

// Check is a named dependency probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Health runs dependency probes and publishes the results through the gRPC health service.
// Each check is served under its own name; Overall is SERVING only when all pass.
type Health struct {
	srv     *health.Server
	checks  []Check
	timeout time.Duration
	log     *zap.Logger

	mu      sync.RWMutex
	checked bool
	last    map[string]error
}

// NewHealth registers checks as NOT_SERVING until the first probe.
func NewHealth(log *zap.Logger, timeout time.Duration, checks ...Check) *Health {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	h := &Health{
		srv:     health.NewServer(),
		checks:  checks,
		timeout: timeout,
		log:     log,
		last:    make(map[string]error, len(checks)),
	}
	h.srv.SetServingStatus(Overall, healthpb.HealthCheckResponse_NOT_SERVING)
	for _, c := range checks {
		h.srv.SetServingStatus(c.Name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return h
}

// Server is the health service to register on a gRPC server.
func (h *Health) Server() healthpb.HealthServer { return h.srv }

// Probe pings every dependency once and updates serving status.
// It returns the joined failures.
func (h *Health) Probe(ctx context.Context) error {
	results := make([]error, len(h.checks))
	var wg sync.WaitGroup
	for i, c := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			if err := c.Ping(pctx); err != nil {
				results[i] = fmt.Errorf("%s: %w", c.Name, err)
			}
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, c := range h.checks {
		prev, err := h.last[c.Name], results[i]
		switch {
		case err != nil && prev == nil:
			h.log.Warn("dependency unhealthy", zap.String("check", c.Name), zap.Error(err))
		case err == nil && prev != nil:
			h.log.Info("dependency recovered", zap.String("check", c.Name))
		}
		h.last[c.Name] = err
		h.srv.SetServingStatus(c.Name, servingStatus(err))
	}
	h.checked = true
	joined := errors.Join(results...)
	h.srv.SetServingStatus(Overall, servingStatus(joined))
	return joined
}

func servingStatus(err error) healthpb.HealthCheckResponse_ServingStatus {
	if err != nil {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

// Ready reports the result of the latest probe.
func (h *Health) Ready(context.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.checked {
		return errNotChecked
	}
	errs := make([]error, 0, len(h.last))
	for _, c := range h.checks {
		errs = append(errs, h.last[c.Name])
	}
	return errors.Join(errs...)
}

// Run probes immediately and then every interval until ctx is done.
// On return all services are marked NOT_SERVING.
func (h *Health) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 10 * time.Second
	}
	_ = h.Probe(ctx)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-t.C:
			_ = h.Probe(ctx)
		}
	}
}
