package verify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ppiankov/claimgate/internal/cache"
	"github.com/ppiankov/claimgate/internal/model"
	"github.com/ppiankov/claimgate/internal/worker"
)

// Resolver fans one claim out to every verifier whose Supports() accepts its
// type, runs them concurrently, and isolates per-verifier failures into
// error-evidence. A batch of claims is resolved under one shared deadline:
// on timeout the whole resolution step fails rather than returning a partial
// picture.
type Resolver struct {
	verifiers []SourceVerifier
	workers   int
	timeout   time.Duration
}

// NewResolver creates a resolver over the given verifier set
func NewResolver(verifiers []SourceVerifier, workers int, timeout time.Duration) *Resolver {
	if workers <= 0 {
		workers = 8
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Resolver{verifiers: verifiers, workers: workers, timeout: timeout}
}

// Verifiers returns the verifier set (for cache invalidation wiring)
func (r *Resolver) Verifiers() []SourceVerifier {
	return r.verifiers
}

// Resolve gathers evidence for a single claim from all applicable verifiers,
// concurrently. It never returns an error: failed verifiers contribute
// error-evidence instead.
func (r *Resolver) Resolve(ctx context.Context, claim model.Claim) []model.SourceEvidence {
	var applicable []SourceVerifier
	for _, v := range r.verifiers {
		if v.Supports(claim.Type) {
			applicable = append(applicable, v)
		}
	}
	if len(applicable) == 0 {
		return nil
	}

	results := make([]model.SourceEvidence, len(applicable))
	var wg sync.WaitGroup
	for i, v := range applicable {
		wg.Add(1)
		go func(idx int, sv SourceVerifier) {
			defer wg.Done()
			results[idx] = runVerifier(ctx, sv, claim)
		}(i, v)
	}
	wg.Wait()

	return results
}

// ResolveAll resolves a batch of claims, each claim handled concurrently and
// bounded by the resolver's worker count. The entire step shares one timeout;
// when it expires or the caller cancels, partial results are discarded and an
// error is returned so a half-evaluated picture never reaches the gate.
func (r *Resolver) ResolveAll(ctx context.Context, claims []model.Claim) (map[string][]model.SourceEvidence, error) {
	if len(claims) == 0 {
		return map[string][]model.SourceEvidence{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	evidenceByClaim := make([][]model.SourceEvidence, len(claims))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, r.workers)

	for i, claim := range claims {
		wg.Add(1)
		go func(idx int, c model.Claim) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			evidenceByClaim[idx] = r.Resolve(ctx, c)
		}(i, claim)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		<-done // Let workers unwind before discarding their output
		return nil, fmt.Errorf("evidence resolution: %w", ctx.Err())
	case <-done:
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evidence resolution: %w", err)
	}

	out := make(map[string][]model.SourceEvidence, len(claims))
	for i, claim := range claims {
		out[claim.ID] = evidenceByClaim[i]
	}
	return out, nil
}

// NewDefaultVerifiers assembles the full verifier set for a project. Every
// verifier owns its cache; nothing is shared process-wide. The caches are
// also returned so the caller can wire file-watch invalidation.
func NewDefaultVerifiers(cfg *model.Config) ([]SourceVerifier, []cache.Cache) {
	var caches []cache.Cache
	newCache := func() cache.Cache {
		if !cfg.Cache.Enabled {
			return nil
		}
		var c cache.Cache
		if cfg.Cache.Dir != "" {
			c = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			c = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
		}
		caches = append(caches, c)
		return c
	}

	limiter := worker.NewCommandLimiter(cfg.Verify.GitOpsPerSecond, cfg.Verify.GitOpsBurst)

	verifiers := []SourceVerifier{
		NewTruthpackVerifier(cfg.Truthpack.Dir, newCache(), cfg.Cache.TTL),
		NewPackageManifestVerifier(cfg.ProjectRoot, newCache(), cfg.Cache.TTL),
		NewFilesystemVerifier(cfg.ProjectRoot, cfg.Verify.EnvFiles, newCache(), cfg.Cache.TTL),
		NewPatternVerifier(cfg.ProjectRoot, cfg.Verify.MaxPatternFiles, cfg.Verify.MaxPatternBytes, cfg.Verify.IgnoreDirs),
		NewVersionControlVerifier(cfg.ProjectRoot, limiter),
		NewTypeCheckerVerifier(cfg.ProjectRoot, cfg.Verify.MaxPatternFiles),
		NewRuntimeVerifier(),
	}
	return verifiers, caches
}
