package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/claimgate/internal/audit"
	"github.com/ppiankov/claimgate/internal/cache"
	"github.com/ppiankov/claimgate/internal/calibrate"
	"github.com/ppiankov/claimgate/internal/evidence"
	"github.com/ppiankov/claimgate/internal/extract"
	"github.com/ppiankov/claimgate/internal/firewall"
	"github.com/ppiankov/claimgate/internal/llm"
	"github.com/ppiankov/claimgate/internal/model"
	"github.com/ppiankov/claimgate/internal/policy"
	"github.com/ppiankov/claimgate/internal/verify"
)

// gate bundles the assembled firewall with the components a command may
// need to interact with directly, and a unified shutdown.
type gate struct {
	firewall   *firewall.Orchestrator
	calibrator *calibrate.Calibrator
	auditLog   *audit.Log
	watcher    *cache.Watcher
}

// close flushes persisted state. Persistence failures are reported but never
// change the outcome of commands that already ran.
func (g *gate) close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	if err := g.calibrator.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: saving calibration state: %v\n", err)
	}
	if err := g.auditLog.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: flushing audit log: %v\n", err)
	}
}

// buildGate assembles the full pipeline from configuration: extractor,
// verifiers, chain builder, calibrator, policy collaborators, audit log, and
// the optional LLM explainer.
func buildGate(cfg *model.Config) (*gate, error) {
	calibrator := calibrate.NewCalibrator(cfg.Calibration)
	auditLog := audit.NewLog(cfg.Audit)

	verifiers, caches := verify.NewDefaultVerifiers(cfg)
	resolver := verify.NewResolver(
		verifiers,
		cfg.Concurrency.ResolveWorkers,
		cfg.Firewall.EvidenceTimeout,
	)

	// Watch invalidates verifier caches when manifests or truthpack files
	// change under the project root; a failed watch only extends staleness.
	var watcher *cache.Watcher
	if cfg.Cache.Enabled && cfg.Cache.Watch && len(caches) > 0 {
		w, werr := cache.NewWatcher(caches...)
		if werr != nil {
			fmt.Fprintf(os.Stderr, "Warning: cache watcher unavailable: %v\n", werr)
		} else {
			if addErr := w.Add(cfg.ProjectRoot); addErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: watching %s: %v\n", cfg.ProjectRoot, addErr)
			}
			_ = w.Add(cfg.Truthpack.Dir)
			watcher = w
		}
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("configuring LLM provider: %w", err)
	}
	var explainer firewall.Explainer
	if e := llm.NewExplainer(provider); e != nil {
		explainer = e
	}

	orchestrator, err := firewall.NewOrchestrator(
		cfg,
		extract.NewExtractor(),
		policy.NewValidator(cfg.ProjectRoot),
		resolver,
		evidence.NewChainBuilder(),
		calibrator,
		policy.NewEngine(cfg.Policy),
		policy.NewPlanner(),
		auditLog,
		explainer,
	)
	if err != nil {
		return nil, err
	}

	return &gate{
		firewall:   orchestrator,
		calibrator: calibrator,
		auditLog:   auditLog,
		watcher:    watcher,
	}, nil
}

// loadConfig builds the effective configuration: defaults overlaid with the
// mode flag shared by the gating commands.
func loadConfig(mode string) (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Output.Verbose = verbose

	if mode != "" {
		m := model.Mode(mode)
		if !model.ValidMode(m) {
			return nil, fmt.Errorf("invalid mode %q (valid: observe, enforce, lockdown)", mode)
		}
		cfg.Mode = m
	}

	configureLLMFromEnv(cfg)
	return cfg, nil
}

// configureLLMFromEnv fills provider credentials from the environment
func configureLLMFromEnv(cfg *model.Config) {
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
}
