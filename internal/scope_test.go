package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScopeConfigPath(t *testing.T) {
	scope := Scope{Dir: "/home/user/.lloyd"}
	expected := "/home/user/.lloyd/config.yaml"
	if scope.ConfigPath() != expected {
		t.Errorf("expected %q, got %q", expected, scope.ConfigPath())
	}
}

func TestScopeResolverGlobal(t *testing.T) {
	resolver := NewScopeResolver()
	scope := resolver.Global()

	if scope.Type != ScopeGlobal {
		t.Errorf("expected ScopeGlobal, got %q", scope.Type)
	}

	home, _ := os.UserHomeDir()
	expectedDir := filepath.Join(home, ".lloyd")
	if scope.Dir != expectedDir {
		t.Errorf("expected Dir %q, got %q", expectedDir, scope.Dir)
	}
}

func TestScopeResolverProjectNotFound(t *testing.T) {
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	defer func() { _ = os.Chdir(orig) }()

	_ = os.Chdir(tmp)

	resolver := NewScopeResolver()
	_, found := resolver.Project()
	if found {
		t.Error("expected Project() to return false when no .lloyd exists")
	}
}

func TestScopeResolverProjectFound(t *testing.T) {
	tmp := t.TempDir()
	dir := filepath.Join(tmp, ".lloyd")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(tmp, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	orig, _ := os.Getwd()
	defer func() { _ = os.Chdir(orig) }()

	_ = os.Chdir(nested)

	resolver := NewScopeResolver()
	scope, found := resolver.Project()
	if !found {
		t.Fatal("expected Project() to return true")
	}

	if scope.Type != ScopeProject {
		t.Errorf("expected ScopeProject, got %q", scope.Type)
	}

	// Resolve symlinks for comparison (macOS /var -> /private/var)
	expectedDir, _ := filepath.EvalSymlinks(dir)
	actualDir, _ := filepath.EvalSymlinks(scope.Dir)
	if actualDir != expectedDir {
		t.Errorf("expected Dir %q, got %q", expectedDir, actualDir)
	}
}

func TestScopeResolverResolve(t *testing.T) {
	tmp := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmp, ".lloyd"), 0755); err != nil {
		t.Fatal(err)
	}

	orig, _ := os.Getwd()
	defer func() { _ = os.Chdir(orig) }()
	_ = os.Chdir(tmp)

	resolver := NewScopeResolver()

	if got := resolver.Resolve("").Type; got != ScopeProject {
		t.Errorf("Resolve(\"\") = %q, want project", got)
	}
	if got := resolver.Resolve("global").Type; got != ScopeGlobal {
		t.Errorf("Resolve(\"global\") = %q, want global", got)
	}
}
