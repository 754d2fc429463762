package model

import "time"

// Config is the complete claimgate configuration
type Config struct {
	ProjectRoot string            `yaml:"project_root"`
	Mode        Mode              `yaml:"mode"`
	Firewall    FirewallConfig    `yaml:"firewall"`
	Verify      VerifyConfig      `yaml:"verify"`
	Cache       CacheConfig       `yaml:"cache"`
	Truthpack   TruthpackConfig   `yaml:"truthpack"`
	Policy      PolicyConfig      `yaml:"policy"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Audit       AuditConfig       `yaml:"audit"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	LLM         LLMConfig         `yaml:"llm"`
	Output      OutputConfig      `yaml:"output"`
}

// FirewallConfig controls gating behavior
type FirewallConfig struct {
	MaxClaimsPerRequest int           `yaml:"max_claims_per_request"`
	EvidenceTimeout     time.Duration `yaml:"evidence_timeout"`
	IntentTimeout       time.Duration `yaml:"intent_timeout"`
	QuickCheckTTL       time.Duration `yaml:"quickcheck_ttl"`
}

// VerifyConfig bounds the file-walking verifiers
type VerifyConfig struct {
	MaxPatternFiles   int      `yaml:"max_pattern_files"`
	MaxPatternBytes   int64    `yaml:"max_pattern_bytes"`
	IgnoreDirs        []string `yaml:"ignore_dirs"`
	EnvFiles          []string `yaml:"env_files"`
	GitOpsPerSecond   float64  `yaml:"git_ops_per_second"`
	GitOpsBurst       int      `yaml:"git_ops_burst"`
}

// CacheConfig controls verifier read-through caches
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Dir     string        `yaml:"dir"` // Disk layer location; empty disables the disk layer
	Watch   bool          `yaml:"watch"`
}

// TruthpackConfig locates the generated ground-truth registry
type TruthpackConfig struct {
	Dir string `yaml:"dir"`
}

// PolicyConfig sets the gating thresholds for the default policy engine
type PolicyConfig struct {
	MinConfidence float64 `yaml:"min_confidence"` // Block when mean calibrated confidence falls below this
	MaxUnlikely   int     `yaml:"max_unlikely"`   // Block when more than this many claims are unlikely
}

// CalibrationConfig controls the confidence calibrator
type CalibrationConfig struct {
	Path                string  `yaml:"path"`
	MinSamplesPerBucket int     `yaml:"min_samples_per_bucket"`
	RecalibrateEvery    int     `yaml:"recalibrate_every"`
	TypeBlend           float64 `yaml:"type_blend"` // Tunable: weight of claim-type accuracy in the blend
}

// AuditConfig controls the append-only decision log
type AuditConfig struct {
	Path          string        `yaml:"path"`
	BufferSize    int           `yaml:"buffer_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// ConcurrencyConfig bounds the evaluation fan-out
type ConcurrencyConfig struct {
	ResolveWorkers int `yaml:"resolve_workers"`
	BatchWorkers   int `yaml:"batch_workers"`
}

// LLMConfig configures the optional advisory explainer
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model     string `yaml:"model"`
	APIKey    string `yaml:"-"`
	BaseURL   string `yaml:"base_url"`
	Timeout   int    `yaml:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose"`
	IncludeFooter bool `yaml:"include_footer"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ProjectRoot: ".",
		Mode:        ModeEnforce,
		Firewall: FirewallConfig{
			MaxClaimsPerRequest: 50,
			EvidenceTimeout:     30 * time.Second,
			IntentTimeout:       5 * time.Second,
			QuickCheckTTL:       5 * time.Minute,
		},
		Verify: VerifyConfig{
			MaxPatternFiles: 200,
			MaxPatternBytes: 512 * 1024,
			IgnoreDirs:      []string{".git", "node_modules", "vendor", "dist", "build", ".next", "coverage"},
			EnvFiles:        []string{".env", ".env.local", ".env.development", ".env.production"},
			GitOpsPerSecond: 10,
			GitOpsBurst:     5,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     2 * time.Minute,
			Watch:   false,
		},
		Truthpack: TruthpackConfig{
			Dir: ".claimgate/truthpack",
		},
		Policy: PolicyConfig{
			MinConfidence: 0.5,
			MaxUnlikely:   2,
		},
		Calibration: CalibrationConfig{
			Path:                ".claimgate/calibration.json",
			MinSamplesPerBucket: 3,
			RecalibrateEvery:    50,
			TypeBlend:           0.3,
		},
		Audit: AuditConfig{
			Path:          ".claimgate/audit.jsonl",
			BufferSize:    20,
			FlushInterval: 10 * time.Second,
		},
		Concurrency: ConcurrencyConfig{
			ResolveWorkers: 8,
			BatchWorkers:   4,
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 800,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
	}
}
