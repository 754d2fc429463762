package truthpack

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingDirectoryIsEmpty(t *testing.T) {
	reg, err := Load(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !reg.Empty() {
		t.Errorf("Expected empty registry, got %+v", reg)
	}
}

func TestLoad_DocumentShapes(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "routes.json", `[{"method":"get","path":"/api/users/:id"},{"path":"/health"}]`)
	writeFile(t, dir, "env.json", `["DATABASE_URL","API_KEY"]`)
	writeFile(t, dir, "contracts.json", `{"UserProfile":{},"Order":{}}`)

	reg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if len(reg.Routes) != 2 {
		t.Fatalf("Expected 2 routes, got %v", reg.Routes)
	}
	if reg.Routes[0] != "GET /api/users/:id" {
		t.Errorf("Expected method-prefixed route, got %q", reg.Routes[0])
	}
	if len(reg.Env) != 2 || reg.Env[0] != "DATABASE_URL" {
		t.Errorf("Unexpected env entries: %v", reg.Env)
	}
	if len(reg.Contracts) != 2 {
		t.Errorf("Expected 2 contracts, got %v", reg.Contracts)
	}
	if reg.Empty() {
		t.Error("Registry should not be empty")
	}
}

func TestMatchRoute(t *testing.T) {
	cases := []struct {
		route   string
		claimed string
		want    bool
	}{
		{route: "/api/users/:id", claimed: "/api/users/42", want: true},
		{route: "/api/users/[id]", claimed: "/api/users/42", want: true},
		{route: "/api/users/{id}", claimed: "/api/users/42", want: true},
		{route: "/api/*/detail", claimed: "/api/orders/detail", want: true},
		{route: "/api/**", claimed: "/api/a/b/c", want: true},
		{route: "GET /health", claimed: "GET /health", want: true},
		{route: "GET /health", claimed: "POST /health", want: false},
		{route: "GET /health", claimed: "/health", want: true}, // Method participates only on both sides
		{route: "/api/users", claimed: "/api/orders", want: false},
		{route: "/api/users/:id", claimed: "/api/users/42/extra", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.route+"_vs_"+tc.claimed, func(t *testing.T) {
			if got := MatchRoute(tc.route, tc.claimed); got != tc.want {
				t.Errorf("MatchRoute(%q, %q) = %v, want %v", tc.route, tc.claimed, got, tc.want)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
