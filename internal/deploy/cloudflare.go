package deploy

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ieshan/bit2/internal/logger"
	"github.com/ieshan/bit2/internal/runner"
)

var pagesURLPattern = regexp.MustCompile(`https://[A-Za-z0-9.\-]+\.pages\.dev`)

// Cloudflare deploys to Cloudflare Pages with wrangler.
type Cloudflare struct {
	runner runner.Runner
}

func (c *Cloudflare) Name() string { return "cloudflare" }

func (c *Cloudflare) RequiredTools() []string { return []string{"wrangler", "npm"} }

func (c *Cloudflare) Deploy(ctx context.Context, target Target) (*Result, error) {
	wrangler := func(args ...string) runner.Cmd {
		return runner.Cmd{Name: "wrangler", Args: args, Dir: target.Dir}
	}

	res, err := c.runner.Run(ctx, wrangler("pages", "project", "create", target.Project, "--production-branch", "main"))
	if err := tolerateExists(res, err); err != nil {
		return nil, fmt.Errorf("failed to create Pages project %s: %w", target.Project, err)
	}

	if err := buildSite(ctx, c.runner, target.Dir); err != nil {
		return nil, err
	}

	for _, key := range sortedKeys(target.Env) {
		cmd := wrangler("pages", "secret", "put", key, "--project-name", target.Project)
		cmd.Stdin = strings.NewReader(target.Env[key])
		if _, err := c.runner.Run(ctx, cmd); err != nil {
			return nil, fmt.Errorf("failed to set secret %s: %w", key, err)
		}
		logger.Debug(ctx, "Secret uploaded", "key", key)
	}

	args := []string{"pages", "deploy", "dist", "--project-name", target.Project}
	if !target.Production {
		args = append(args, "--branch", "preview")
	}
	res, err = c.runner.Run(ctx, wrangler(args...))
	if err != nil {
		return nil, fmt.Errorf("failed to deploy to Cloudflare Pages: %w", err)
	}

	url, err := findURL(pagesURLPattern, res.Output())
	if err != nil {
		return nil, err
	}
	return &Result{Platform: c.Name(), URL: url}, nil
}
