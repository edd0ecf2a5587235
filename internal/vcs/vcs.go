// Package vcs initializes the project repository and creates its remote on
// GitHub (gh) or GitLab (glab).
package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ieshan/bit2/internal/logger"
	"github.com/ieshan/bit2/internal/runner"
)

const (
	GitHub = "github"
	GitLab = "gitlab"
)

// ErrUnknownProvider is returned for providers other than github and gitlab.
var ErrUnknownProvider = errors.New("unknown git provider")

// ErrNoRemoteURL is returned when the CLI output has no repository URL.
var ErrNoRemoteURL = errors.New("no repository url in output")

var remotePatterns = map[string]*regexp.Regexp{
	GitHub: regexp.MustCompile(`https://github\.com/[A-Za-z0-9_.\-]+/[A-Za-z0-9_.\-]+`),
	GitLab: regexp.MustCompile(`https://gitlab\.com/[A-Za-z0-9_.\-/]+[A-Za-z0-9_\-]`),
}

// Tool returns the CLI binary for a provider.
func Tool(provider string) (string, error) {
	switch provider {
	case GitHub:
		return "gh", nil
	case GitLab:
		return "glab", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}

// Repo drives git and the provider CLI inside a project directory.
type Repo struct {
	runner runner.Runner
	dir    string
}

// New creates a Repo for dir.
func New(r runner.Runner, dir string) *Repo {
	return &Repo{runner: r, dir: dir}
}

func (r *Repo) run(ctx context.Context, name string, args ...string) (runner.Result, error) {
	return runner.Run(ctx, r.runner, r.dir, name, args...)
}

// Init runs "git init" when needed and creates an initial commit when the
// repository has no HEAD yet.
func (r *Repo) Init(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(r.dir, ".git")); errors.Is(err, os.ErrNotExist) {
		if _, err := r.run(ctx, "git", "init", "-b", "main"); err != nil {
			return fmt.Errorf("failed to initialize git repository: %w", err)
		}
		logger.Info(ctx, "Initialized git repository", "dir", r.dir)
	}

	if _, err := r.run(ctx, "git", "rev-parse", "--verify", "HEAD"); err == nil {
		return nil
	}

	if _, err := r.run(ctx, "git", "add", "-A"); err != nil {
		return fmt.Errorf("failed to stage files: %w", err)
	}
	if _, err := r.run(ctx, "git", "commit", "-m", "Initial commit from bit2"); err != nil {
		return fmt.Errorf("failed to create initial commit: %w", err)
	}
	return nil
}

// CreateRemote creates the hosted repository, adds it as origin and pushes.
// It returns the repository web URL.
func (r *Repo) CreateRemote(ctx context.Context, provider, name string, private bool) (string, error) {
	visibility := "--public"
	if private {
		visibility = "--private"
	}

	switch provider {
	case GitHub:
		res, err := r.run(ctx, "gh", "repo", "create", name, visibility, "--source", ".", "--remote", "origin", "--push")
		if err != nil {
			return "", fmt.Errorf("failed to create GitHub repository: %w", err)
		}
		return ParseRemoteURL(GitHub, res.Output())

	case GitLab:
		res, err := r.run(ctx, "glab", "repo", "create", name, visibility, "--defaultBranch", "main")
		if err != nil {
			return "", fmt.Errorf("failed to create GitLab repository: %w", err)
		}
		url, err := ParseRemoteURL(GitLab, res.Output())
		if err != nil {
			return "", err
		}
		if err := r.setOrigin(ctx, url+".git"); err != nil {
			return "", err
		}
		if _, err := r.run(ctx, "git", "push", "-u", "origin", "HEAD"); err != nil {
			return "", fmt.Errorf("failed to push to GitLab: %w", err)
		}
		return url, nil

	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}

func (r *Repo) setOrigin(ctx context.Context, url string) error {
	if _, err := r.run(ctx, "git", "remote", "get-url", "origin"); err == nil {
		if _, err := r.run(ctx, "git", "remote", "set-url", "origin", url); err != nil {
			return fmt.Errorf("failed to update origin: %w", err)
		}
		return nil
	}
	if _, err := r.run(ctx, "git", "remote", "add", "origin", url); err != nil {
		return fmt.Errorf("failed to add origin: %w", err)
	}
	return nil
}

// ParseRemoteURL extracts the repository web URL from provider CLI output.
func ParseRemoteURL(provider, out string) (string, error) {
	pattern, ok := remotePatterns[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	url := pattern.FindString(out)
	if url == "" {
		return "", ErrNoRemoteURL
	}
	return strings.TrimSuffix(url, ".git"), nil
}
