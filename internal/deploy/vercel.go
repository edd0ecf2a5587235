package deploy

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ieshan/bit2/internal/runner"
)

var vercelURLPattern = regexp.MustCompile(`https://[A-Za-z0-9.\-]+\.vercel\.app`)

// Vercel deploys with the vercel CLI. The build runs on Vercel.
type Vercel struct {
	runner runner.Runner
}

func (v *Vercel) Name() string { return "vercel" }

func (v *Vercel) RequiredTools() []string { return []string{"vercel"} }

func (v *Vercel) Deploy(ctx context.Context, target Target) (*Result, error) {
	vercel := func(args ...string) runner.Cmd {
		return runner.Cmd{Name: "vercel", Args: args, Dir: target.Dir}
	}

	if _, err := v.runner.Run(ctx, vercel("link", "--yes", "--project", target.Project)); err != nil {
		return nil, fmt.Errorf("failed to link Vercel project %s: %w", target.Project, err)
	}

	environment := "preview"
	if target.Production {
		environment = "production"
	}
	for _, key := range sortedKeys(target.Env) {
		cmd := vercel("env", "add", key, environment)
		cmd.Stdin = strings.NewReader(target.Env[key])
		res, err := v.runner.Run(ctx, cmd)
		if err := tolerateExists(res, err); err != nil {
			return nil, fmt.Errorf("failed to add env %s: %w", key, err)
		}
	}

	args := []string{"deploy", "--yes"}
	if target.Production {
		args = append(args, "--prod")
	}
	res, err := v.runner.Run(ctx, vercel(args...))
	if err != nil {
		return nil, fmt.Errorf("failed to deploy to Vercel: %w", err)
	}

	url, err := findURL(vercelURLPattern, res.Stdout)
	if err != nil {
		// Progress output with the inspect URL goes to stderr.
		if url, err = findURL(vercelURLPattern, res.Output()); err != nil {
			return nil, err
		}
	}
	return &Result{Platform: v.Name(), URL: url}, nil
}
