package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/4thel00z/consent/internal"
	"github.com/spf13/cobra"
)

// Plugins are executables named consent-<name> on PATH. They run with the
// settings this binary resolved, exported as CONSENT_* variables, so a plugin
// can call back into "consent dispatch" or the HTTP endpoint and see the same
// corpus and index.
const pluginPrefix = "consent-"

type plugin struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// discoverPlugins scans a PATH-style list. As with exec.LookPath, the first
// executable found for a name wins.
func discoverPlugins(pathList string) []plugin {
	var found []plugin
	seen := make(map[string]bool)

	for _, dir := range filepath.SplitList(pathList) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name, ok := strings.CutPrefix(entry.Name(), pluginPrefix)
			if !ok || name == "" || seen[name] {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			info, err := os.Stat(path)
			if err != nil || info.IsDir() || info.Mode()&0111 == 0 {
				continue
			}
			seen[name] = true
			found = append(found, plugin{Name: name, Path: path})
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found
}

func lookupPlugin(pathList, name string) (plugin, bool) {
	for _, p := range discoverPlugins(pathList) {
		if p.Name == name {
			return p, true
		}
	}
	return plugin{}, false
}

// isBuiltin reports whether name is a subcommand of root; builtins are never
// shadowed by a plugin of the same name.
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

// pluginEnv appends the resolved configuration to base. An empty
// CONSENT_CORPUS means the built-in corpus.
func pluginEnv(base []string, a *app, version string) []string {
	cfg := a.Config()
	bin, _ := os.Executable()

	corpus := ""
	if cfg.Corpus.Path != "" {
		corpus = absPath(cfg.Corpus.Path)
	}

	actions := make([]string, len(internal.Actions))
	for i, act := range internal.Actions {
		actions[i] = act.String()
	}

	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	endpoint := "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port)) + "/api/analyseur_conversation"

	env := append([]string(nil), base...)
	return append(env,
		"CONSENT_VERSION="+version,
		"CONSENT_BIN="+bin,
		"CONSENT_CONFIG="+absPath(a.cfgPath),
		"CONSENT_CORPUS="+corpus,
		"CONSENT_INDEX="+cfg.Index.Backend,
		"CONSENT_EMBEDDINGS_BACKEND="+cfg.Embeddings.Backend,
		"CONSENT_ENDPOINT="+endpoint,
		"CONSENT_ACTIONS="+strings.Join(actions, ","),
	)
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// execPlugin runs p and returns its exit status. err is set only when the
// plugin could not be started.
func execPlugin(ctx context.Context, p plugin, args, env []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, p.Path, args...)
	cmd.Env = env
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), nil
	default:
		return 1, fmt.Errorf("run %s: %w", p.Path, err)
	}
}

// runPlugin resolves the configuration the way a builtin command would, then
// hands control to p.
func runPlugin(ctx context.Context, a *app, p plugin, args []string) int {
	path := a.configPath("", false)
	cfg, err := a.loadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "consent %s: %v\n", p.Name, err)
		return 1
	}
	a.use(cfg, path)

	code, err := execPlugin(ctx, p, args, pluginEnv(os.Environ(), a, version), os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "consent %s: %v\n", p.Name, err)
	}
	return code
}

func NewPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List consent-* plugins found on PATH",
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			plugins := discoverPlugins(os.Getenv("PATH"))

			if asJSON {
				if plugins == nil {
					plugins = []plugin{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(plugins)
			}
			if len(plugins) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No plugins found.")
				return nil
			}
			for _, p := range plugins {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", p.Name, p.Path)
			}
			return nil
		},
	}
}
