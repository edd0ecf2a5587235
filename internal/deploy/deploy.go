// Package deploy publishes a generated project to a hosting platform by
// driving the platform's CLI.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/ieshan/bit2/internal/logger"
	"github.com/ieshan/bit2/internal/runner"
)

var (
	// ErrUnknownPlatform is returned by Lookup for unsupported platforms.
	ErrUnknownPlatform = errors.New("unknown deploy platform")
	// ErrNoDeployURL is returned when the CLI output contains no site URL.
	ErrNoDeployURL = errors.New("no deployment url in output")
)

var existsPattern = regexp.MustCompile(`(?i)already (exists|been taken|in use)`)

// Target is the project being deployed.
type Target struct {
	Dir     string
	Project string
	// Env holds variables the deployed app needs at runtime.
	Env        map[string]string
	Production bool
}

// Result describes a finished deployment.
type Result struct {
	Platform string
	URL      string
}

// Platform deploys a project.
type Platform interface {
	Name() string
	RequiredTools() []string
	Deploy(ctx context.Context, target Target) (*Result, error)
}

type factory func(runner.Runner) Platform

var registry = map[string]factory{
	"cloudflare": func(r runner.Runner) Platform { return &Cloudflare{runner: r} },
	"vercel":     func(r runner.Runner) Platform { return &Vercel{runner: r} },
	"netlify":    func(r runner.Runner) Platform { return &Netlify{runner: r} },
}

// Names lists the supported platforms in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the named platform.
func Lookup(name string, r runner.Runner) (Platform, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnknownPlatform, name, strings.Join(Names(), ", "))
	}
	return f(r), nil
}

// sortedKeys keeps secret uploads in a stable order.
func sortedKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// buildSite installs dependencies when needed and runs the project build.
func buildSite(ctx context.Context, r runner.Runner, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, "node_modules")); errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Installing dependencies")
		if _, err := runner.Run(ctx, r, dir, "npm", "install"); err != nil {
			return fmt.Errorf("failed to install dependencies: %w", err)
		}
	}
	logger.Info(ctx, "Building site")
	if _, err := runner.Run(ctx, r, dir, "npm", "run", "build"); err != nil {
		return fmt.Errorf("failed to build site: %w", err)
	}
	return nil
}

// tolerateExists treats "already exists" failures as success.
func tolerateExists(res runner.Result, err error) error {
	if err != nil && existsPattern.MatchString(res.Output()) {
		return nil
	}
	return err
}

func findURL(pattern *regexp.Regexp, out string) (string, error) {
	m := pattern.FindStringSubmatch(out)
	if m == nil {
		return "", ErrNoDeployURL
	}
	return m[len(m)-1], nil
}
