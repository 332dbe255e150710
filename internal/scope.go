package internal

import (
	"os"
	"path/filepath"
)

const ScopeDirName = ".lloyd"

type ScopeType string

const (
	ScopeGlobal  ScopeType = "global"
	ScopeProject ScopeType = "project"
)

type Scope struct {
	Type ScopeType
	Path string // working directory root
	Dir  string // .lloyd directory path
}

func (s Scope) ConfigPath() string {
	return filepath.Join(s.Dir, "config.yaml")
}

type ScopeResolver struct {
	homeDir string
}

func NewScopeResolver() *ScopeResolver {
	home, _ := os.UserHomeDir()
	return &ScopeResolver{homeDir: home}
}

func (r *ScopeResolver) Global() Scope {
	return Scope{
		Type: ScopeGlobal,
		Path: r.homeDir,
		Dir:  filepath.Join(r.homeDir, ScopeDirName),
	}
}

func (r *ScopeResolver) Project() (Scope, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return Scope{}, false
	}
	return r.findProjectScope(cwd)
}

func (r *ScopeResolver) findProjectScope(dir string) (Scope, bool) {
	for {
		scopeDir := filepath.Join(dir, ScopeDirName)
		info, err := os.Stat(scopeDir)
		if err == nil && info.IsDir() && dir != r.homeDir {
			return Scope{Type: ScopeProject, Path: dir, Dir: scopeDir}, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Scope{}, false
		}
		dir = parent
	}
}

// Resolve picks the nearest project scope unless global is requested.
func (r *ScopeResolver) Resolve(explicit string) Scope {
	if explicit == string(ScopeGlobal) {
		return r.Global()
	}
	if scope, ok := r.Project(); ok {
		return scope
	}
	return r.Global()
}
