package firewall

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/claimgate/internal/model"
)

// dangerousPattern is one entry in the fixed quick-check scan table
type dangerousPattern struct {
	name     string
	severity string
	re       *regexp.Regexp
}

var dangerousPatterns = []dangerousPattern{
	{"dynamic_evaluation", "critical", regexp.MustCompile(`\beval\s*\(|new\s+Function\s*\(`)},
	{"destructive_shell", "critical", regexp.MustCompile(`\brm\s+-[rf]{2}\b|\brm\s+-[rf]\s+-[rf]\b`)},
	{"unparameterized_sql_delete", "critical", regexp.MustCompile(`(?i)DELETE\s+FROM\s+\w+\s*(?:;|$)`)},
	{"global_state_mutation", "warning", regexp.MustCompile(`\bglobal\.\w+\s*=|\bprocess\.env\.\w+\s*=`)},
	{"dynamic_require", "warning", regexp.MustCompile(`require\s*\(\s*[^'")\s]`)},
	{"sync_deletion", "warning", regexp.MustCompile(`\bfs\.(?:unlinkSync|rmSync|rmdirSync)\s*\(`)},
	{"process_spawn", "warning", regexp.MustCompile(`\bchild_process\b|\bexecSync\s*\(|\bspawn(?:Sync)?\s*\(`)},
	{"deep_import_path", "warning", regexp.MustCompile(`['"](?:\.\./){4,}`)},
}

// lowConfidenceCluster flags content whose claims are mostly weak heuristics
const (
	clusterMinClaims = 5
	clusterThreshold = 0.7
)

// QuickCheck runs the cheap heuristic path: extract claims, scan the content
// against the dangerous-pattern table, and flag low-confidence claim
// clusters. Results are keyed by content hash and cached with a TTL; SetMode
// invalidates the cache.
func (o *Orchestrator) QuickCheck(content string) model.QuickCheckResult {
	start := time.Now()

	key := contentKey(content)
	if cached, ok := o.quick.get(key); ok {
		return cached
	}

	claims := o.extractor.Extract(content, "", "")

	var concerns []model.Concern
	for _, p := range dangerousPatterns {
		if loc := p.re.FindStringIndex(content); loc != nil {
			concerns = append(concerns, model.Concern{
				Kind:        p.name,
				Description: fmt.Sprintf("content matches the %s pattern", strings.ReplaceAll(p.name, "_", " ")),
				Severity:    p.severity,
				Line:        strings.Count(content[:loc[0]], "\n") + 1,
			})
		}
	}

	weak := 0
	for _, c := range claims {
		if c.RawConfidence < clusterThreshold {
			weak++
		}
	}
	if weak >= clusterMinClaims {
		concerns = append(concerns, model.Concern{
			Kind:        "low_confidence_cluster",
			Description: fmt.Sprintf("%d of %d claims rest on weak heuristics", weak, len(claims)),
			Severity:    "warning",
		})
	}

	result := model.QuickCheckResult{
		Safe:          len(concerns) == 0,
		Concerns:      concerns,
		ClaimsChecked: len(claims),
		DurationMs:    time.Since(start).Milliseconds(),
	}
	o.quick.set(key, result)
	return result
}

func contentKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// quickCache wraps a TTL cache of quick-check results
type quickCache struct {
	store *gocache.Cache
}

func newQuickCache(ttl time.Duration) *quickCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &quickCache{store: gocache.New(ttl, 2*ttl)}
}

func (c *quickCache) get(key string) (model.QuickCheckResult, bool) {
	if v, ok := c.store.Get(key); ok {
		if result, ok := v.(model.QuickCheckResult); ok {
			return result, true
		}
	}
	return model.QuickCheckResult{}, false
}

func (c *quickCache) set(key string, result model.QuickCheckResult) {
	c.store.SetDefault(key, result)
}

func (c *quickCache) clear() {
	c.store.Flush()
}
