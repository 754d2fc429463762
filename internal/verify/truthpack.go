package verify

import (
	"context"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/ppiankov/claimgate/internal/cache"
	"github.com/ppiankov/claimgate/internal/model"
	"github.com/ppiankov/claimgate/internal/truthpack"
)

// Empty-registry confidences by claim type: the registry being absent says
// more about some claim types than others.
var truthpackEmptyConfidence = map[model.ClaimType]float64{
	model.ClaimAPIEndpoint:   0.5,
	model.ClaimEnvVariable:   0.3,
	model.ClaimTypeReference: 0.7,
}

// TruthpackVerifier checks claims against the generated ground-truth registry
type TruthpackVerifier struct {
	dir   string
	cache cache.Cache
	ttl   time.Duration
}

// NewTruthpackVerifier creates a truthpack verifier with its own cache
func NewTruthpackVerifier(dir string, c cache.Cache, ttl time.Duration) *TruthpackVerifier {
	return &TruthpackVerifier{dir: dir, cache: c, ttl: ttl}
}

// Source returns the verifier identity
func (v *TruthpackVerifier) Source() model.Source {
	return model.SourceTruthpack
}

// Supports reports the claim types the truthpack can judge
func (v *TruthpackVerifier) Supports(claimType model.ClaimType) bool {
	switch claimType {
	case model.ClaimAPIEndpoint, model.ClaimEnvVariable, model.ClaimTypeReference:
		return true
	}
	return false
}

// Verify checks one claim against the registry
func (v *TruthpackVerifier) Verify(ctx context.Context, claim model.Claim) model.SourceEvidence {
	start := time.Now()

	reg, err := v.load()
	if err != nil {
		return errorEvidence(v.Source(), err, start)
	}

	if reg.Empty() {
		conf, ok := truthpackEmptyConfidence[claim.Type]
		if !ok {
			conf = 0.5
		}
		return evidence(v.Source(), false, conf, map[string]interface{}{
			"registry_empty": true,
			"truthpack_dir":  v.dir,
		}, start)
	}

	var (
		hit     bool
		matched string
	)
	switch claim.Type {
	case model.ClaimAPIEndpoint:
		for _, route := range reg.Routes {
			if truthpack.MatchRoute(route, claim.Value) {
				hit = true
				matched = route
				break
			}
		}
	case model.ClaimEnvVariable:
		for _, name := range reg.Env {
			if name == claim.Value {
				hit = true
				matched = name
				break
			}
		}
	case model.ClaimTypeReference:
		for _, name := range append(append([]string{}, reg.Contracts...), reg.Auth...) {
			if name == claim.Value {
				hit = true
				matched = name
				break
			}
		}
	default:
		return evidence(v.Source(), false, 0.3, map[string]interface{}{"unsupported": string(claim.Type)}, start)
	}

	details := map[string]interface{}{
		"registry_entries": len(reg.Routes) + len(reg.Env) + len(reg.Contracts) + len(reg.Auth),
	}
	if hit {
		details["matched"] = matched
		return evidence(v.Source(), true, 1.0, details, start)
	}
	return evidence(v.Source(), false, 0.95, details, start)
}

// Invalidate drops the cached registry; callers use it when the truthpack
// directory changed on disk.
func (v *TruthpackVerifier) Invalidate() {
	if v.cache != nil {
		_ = v.cache.Invalidate(v.dir)
	}
}

// load reads the registry through the verifier-owned cache. The cache key is
// the resolved truthpack directory path.
func (v *TruthpackVerifier) load() (*truthpack.Registry, error) {
	if v.cache == nil {
		return truthpack.Load(v.dir)
	}

	key := cache.Key(v.dir)
	if data, found := v.cache.Get(key); found {
		var reg truthpack.Registry
		if err := json.Unmarshal(data, &reg); err == nil {
			return &reg, nil
		}
		// Corrupt cache entry: fall through to a fresh load
	}

	abs, err := filepath.Abs(v.dir)
	if err != nil {
		abs = v.dir
	}
	reg, err := truthpack.Load(abs)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(reg); err == nil {
		_ = v.cache.Set(key, data, v.ttl)
	}
	return reg, nil
}
