package deploy

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ieshan/bit2/internal/runner"
)

var (
	netlifyURLPattern      = regexp.MustCompile(`Website (?:draft )?URL:\s+(https://\S+)`)
	netlifyFallbackPattern = regexp.MustCompile(`https://[A-Za-z0-9.\-]+\.netlify\.app`)
)

// Netlify deploys with the netlify CLI.
type Netlify struct {
	runner runner.Runner
}

func (n *Netlify) Name() string { return "netlify" }

func (n *Netlify) RequiredTools() []string { return []string{"netlify", "npm"} }

func (n *Netlify) Deploy(ctx context.Context, target Target) (*Result, error) {
	netlify := func(args ...string) runner.Cmd {
		return runner.Cmd{Name: "netlify", Args: args, Dir: target.Dir}
	}

	res, err := n.runner.Run(ctx, netlify("sites:create", "--name", target.Project))
	if err := tolerateExists(res, err); err != nil {
		return nil, fmt.Errorf("failed to create Netlify site %s: %w", target.Project, err)
	}
	if _, err := n.runner.Run(ctx, netlify("link", "--name", target.Project)); err != nil {
		return nil, fmt.Errorf("failed to link Netlify site %s: %w", target.Project, err)
	}

	for _, key := range sortedKeys(target.Env) {
		cmd := netlify("env:set", key, target.Env[key])
		cmd.Secrets = []string{target.Env[key]}
		if _, err := n.runner.Run(ctx, cmd); err != nil {
			return nil, fmt.Errorf("failed to set env %s: %w", key, err)
		}
	}

	if err := buildSite(ctx, n.runner, target.Dir); err != nil {
		return nil, err
	}

	args := []string{"deploy", "--dir", "dist"}
	if target.Production {
		args = append(args, "--prod")
	}
	res, err = n.runner.Run(ctx, netlify(args...))
	if err != nil {
		return nil, fmt.Errorf("failed to deploy to Netlify: %w", err)
	}

	url, err := findURL(netlifyURLPattern, res.Output())
	if err != nil {
		if url, err = findURL(netlifyFallbackPattern, res.Output()); err != nil {
			return nil, err
		}
	}
	return &Result{Platform: n.Name(), URL: url}, nil
}
