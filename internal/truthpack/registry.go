// Package truthpack loads the externally generated ground-truth registry
// (routes, env, contracts, auth) consulted by the truthpack verifier.
// The schema is owned by the generator; loading is deliberately tolerant.
package truthpack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Doc names the four registry documents
const (
	DocRoutes    = "routes"
	DocEnv       = "env"
	DocContracts = "contracts"
	DocAuth      = "auth"
)

// Registry is the in-memory view of one truthpack directory
type Registry struct {
	Routes    []string `json:"routes"`
	Env       []string `json:"env"`
	Contracts []string `json:"contracts"`
	Auth      []string `json:"auth"`
}

// Empty reports whether the registry has no entries at all
func (r *Registry) Empty() bool {
	return r == nil || (len(r.Routes) == 0 && len(r.Env) == 0 && len(r.Contracts) == 0 && len(r.Auth) == 0)
}

// Load reads all registry documents under dir. Missing files are fine;
// a missing directory yields an empty registry, not an error.
func Load(dir string) (*Registry, error) {
	reg := &Registry{}

	for _, doc := range []string{DocRoutes, DocEnv, DocContracts, DocAuth} {
		entries, err := loadDoc(filepath.Join(dir, doc+".json"))
		if err != nil {
			return nil, fmt.Errorf("truthpack %s: %w", doc, err)
		}
		switch doc {
		case DocRoutes:
			reg.Routes = entries
		case DocEnv:
			reg.Env = entries
		case DocContracts:
			reg.Contracts = entries
		case DocAuth:
			reg.Auth = entries
		}
	}

	return reg, nil
}

// loadDoc parses one registry document. Accepted shapes: a JSON array of
// strings, an array of objects carrying "path"/"name"/"value" fields, or an
// object whose keys are the entries.
func loadDoc(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var asStrings []string
	if err := json.Unmarshal(data, &asStrings); err == nil {
		return trimAll(asStrings), nil
	}

	var asObjects []map[string]interface{}
	if err := json.Unmarshal(data, &asObjects); err == nil {
		var entries []string
		for _, obj := range asObjects {
			if entry := entryFromObject(obj); entry != "" {
				entries = append(entries, entry)
			}
		}
		return entries, nil
	}

	var asMap map[string]interface{}
	if err := json.Unmarshal(data, &asMap); err == nil {
		var entries []string
		for key := range asMap {
			entries = append(entries, strings.TrimSpace(key))
		}
		return entries, nil
	}

	return nil, fmt.Errorf("unrecognized document shape in %s", filepath.Base(path))
}

func entryFromObject(obj map[string]interface{}) string {
	method, _ := obj["method"].(string)
	for _, key := range []string{"path", "route", "name", "value"} {
		if v, ok := obj[key].(string); ok && v != "" {
			if key == "path" || key == "route" {
				if method != "" {
					return strings.ToUpper(method) + " " + v
				}
			}
			return v
		}
	}
	return ""
}

func trimAll(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if trimmed := strings.TrimSpace(e); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// MatchRoute reports whether a claimed endpoint matches a registry route.
// Matching tolerates parameter segments (prefixed ":", "[", "{") and the
// wildcards "*" (one segment) and "**" (any remainder). An optional HTTP
// method prefix ("GET /x") participates only when both sides carry one.
func MatchRoute(route, claimed string) bool {
	routeMethod, routePath := splitMethod(route)
	claimMethod, claimPath := splitMethod(claimed)

	if routeMethod != "" && claimMethod != "" && routeMethod != claimMethod {
		return false
	}

	return matchSegments(splitPath(routePath), splitPath(claimPath))
}

func matchSegments(route, claimed []string) bool {
	for i, seg := range route {
		if seg == "**" {
			return true
		}
		if i >= len(claimed) {
			return false
		}
		if !segmentMatches(seg, claimed[i]) {
			return false
		}
	}
	return len(route) == len(claimed)
}

func segmentMatches(routeSeg, claimSeg string) bool {
	if routeSeg == "*" || isParamSegment(routeSeg) || isParamSegment(claimSeg) {
		return true
	}
	return routeSeg == claimSeg
}

func isParamSegment(seg string) bool {
	return strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "[") || strings.HasPrefix(seg, "{")
}

func splitMethod(route string) (method, path string) {
	parts := strings.SplitN(strings.TrimSpace(route), " ", 2)
	if len(parts) == 2 && isHTTPMethod(parts[0]) {
		return strings.ToUpper(parts[0]), parts[1]
	}
	return "", route
}

func isHTTPMethod(s string) bool {
	switch strings.ToUpper(s) {
	case "GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS":
		return true
	}
	return false
}

func splitPath(path string) []string {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
