package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/4thel00z/lloyd/internal"
	"github.com/spf13/cobra"
)

// Executables named lloyd-<name> on PATH run as "lloyd <name>".
const extensionPrefix = "lloyd-"

func lookupExtension(name string) (string, error) {
	path, err := exec.LookPath(extensionPrefix + name)
	if err != nil {
		return "", fmt.Errorf("unknown command %q: %s%s not found in PATH", name, extensionPrefix, name)
	}
	return path, nil
}

// extensions lists the names of lloyd-* executables on PATH. Earlier PATH
// entries shadow later ones.
func extensions() []string {
	seen := make(map[string]bool)
	var names []string
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name, ok := extensionName(dir, entry)
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func extensionName(dir string, entry os.DirEntry) (string, bool) {
	name, ok := strings.CutPrefix(entry.Name(), extensionPrefix)
	if !ok || name == "" || entry.IsDir() {
		return "", false
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	if err != nil || info.Mode()&0o111 == 0 {
		return "", false
	}
	return name, true
}

// dispatchExtension runs args[0] as an extension when it is neither a flag
// nor a built-in command. It reports whether an extension ran.
func dispatchExtension(ctx context.Context, root *cobra.Command, args []string) (bool, error) {
	if len(args) == 0 || args[0] == "" || args[0][0] == '-' || isBuiltin(root, args[0]) {
		return false, nil
	}
	path, err := lookupExtension(args[0])
	if err != nil {
		return false, nil
	}

	cmd := exec.CommandContext(ctx, path, args[1:]...)
	cmd.Env = extensionEnv(root.Version)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return true, fmt.Errorf("lloyd %s: %w", args[0], err)
	}
	return true, nil
}

func isBuiltin(root *cobra.Command, name string) bool {
	if name == "help" || name == "completion" {
		return true
	}
	for _, c := range root.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}

// extensionEnv hands extensions the binary, the resolved config file and
// the service it points at.
func extensionEnv(version string) []string {
	bin, _ := os.Executable()
	cfgPath := internal.NewScopeResolver().Resolve("").ConfigPath()

	serviceURL := internal.DefaultServiceURL
	if cfg, err := internal.LoadConfig(cfgPath); err == nil {
		serviceURL = cfg.Service.URL
	}

	return append(os.Environ(),
		"LLOYD_VERSION="+version,
		"LLOYD_BIN="+bin,
		"LLOYD_CONFIG="+cfgPath,
		"LLOYD_SERVICE_URL="+serviceURL,
	)
}

func printExtensions(cmd *cobra.Command) {
	names := extensions()
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nExtensions (%s*):\n", extensionPrefix)
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
	}
}
