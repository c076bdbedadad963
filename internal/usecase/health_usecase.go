package usecase

import (
	"context"
	"sort"
	"sync"
	"time"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type HealthUsecase interface {
	// Check returns "status" plus one entry per dependency, and whether all are healthy.
	Check(ctx context.Context) (map[string]string, bool)
}

type healthUsecase struct {
	checks  map[string]HealthCheck
	timeout time.Duration
}

func NewHealthUsecase(checks map[string]HealthCheck) HealthUsecase {
	return &healthUsecase{checks: checks, timeout: 2 * time.Second}
}

func (u *healthUsecase) Check(ctx context.Context) (map[string]string, bool) {
	names := make([]string, 0, len(u.checks))
	for name := range u.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, check HealthCheck) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, u.timeout)
			defer cancel()
			if err := check(checkCtx); err != nil {
				results[i] = "unavailable"
				return
			}
			results[i] = "ok"
		}(i, u.checks[name])
	}
	wg.Wait()

	status := map[string]string{"status": "ok"}
	healthy := true
	for i, name := range names {
		status[name] = results[i]
		if results[i] != "ok" {
			healthy = false
			status["status"] = "degraded"
		}
	}
	return status, healthy
}
