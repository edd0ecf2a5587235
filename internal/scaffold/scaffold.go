// Package scaffold generates the Astro + libSQL project template.
package scaffold

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/google/uuid"

	"github.com/ieshan/bit2/internal/logger"
)

//go:embed templates
var templateFS embed.FS

var (
	// ErrDirNotEmpty is returned when the target directory already has files
	// and Force is not set.
	ErrDirNotEmpty = errors.New("target directory is not empty")
	// ErrInvalidName is returned for project names that are not usable as
	// package, database and site names.
	ErrInvalidName = errors.New("invalid project name")
	// ErrUnknownPlatform is returned for platforms without an Astro adapter.
	ErrUnknownPlatform = errors.New("unknown platform")
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// Adapter is the Astro server adapter used for a platform.
type Adapter struct {
	Package string
	Version string
	Import  string
	Call    string
}

var adapters = map[string]Adapter{
	"cloudflare": {Package: "@astrojs/cloudflare", Version: "^12.1.0", Import: "cloudflare", Call: "cloudflare()"},
	"vercel":     {Package: "@astrojs/vercel", Version: "^8.0.0", Import: "vercel", Call: "vercel()"},
	"netlify":    {Package: "@astrojs/netlify", Version: "^6.0.0", Import: "netlify", Call: "netlify()"},
	"node":       {Package: "@astrojs/node", Version: "^9.0.0", Import: "node", Call: "node({ mode: 'standalone' })"},
}

// files maps template sources to their output paths.
var files = []struct {
	src string
	dst string
}{
	{"package.json.tmpl", "package.json"},
	{"astro.config.mjs.tmpl", "astro.config.mjs"},
	{"tsconfig.json.tmpl", "tsconfig.json"},
	{"gitignore.tmpl", ".gitignore"},
	{"env.example.tmpl", ".env.example"},
	{"db/schema.sql.tmpl", "db/schema.sql"},
	{"db/seed.sql.tmpl", "db/seed.sql"},
	{"src/lib/db.ts.tmpl", "src/lib/db.ts"},
	{"src/pages/index.astro.tmpl", "src/pages/index.astro"},
	{"README.md.tmpl", "README.md"},
}

// Options controls project generation.
type Options struct {
	Dir      string
	Name     string
	Platform string
	// LocalDB is the local database file used when no Turso URL is set.
	LocalDB string
	Force   bool
}

// Result lists what Generate wrote.
type Result struct {
	Dir   string
	Files []string
}

type templateData struct {
	Name          string
	Platform      string
	LocalDB       string
	Adapter       Adapter
	SessionSecret string
}

// ValidateName checks a project name.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w %q: use lowercase letters, digits and dashes", ErrInvalidName, name)
	}
	return nil
}

// Generate renders the template into opts.Dir.
func Generate(ctx context.Context, opts Options) (*Result, error) {
	if err := ValidateName(opts.Name); err != nil {
		return nil, err
	}
	adapter, ok := adapters[opts.Platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, opts.Platform)
	}
	if opts.LocalDB == "" {
		opts.LocalDB = "local.db"
	}
	if err := checkTargetDir(opts.Dir, opts.Force); err != nil {
		return nil, err
	}

	data := templateData{
		Name:          opts.Name,
		Platform:      opts.Platform,
		LocalDB:       opts.LocalDB,
		Adapter:       adapter,
		SessionSecret: uuid.NewString(),
	}

	res := &Result{Dir: opts.Dir}
	for _, f := range files {
		content, err := render(f.src, data)
		if err != nil {
			return nil, err
		}
		dst := filepath.Join(opts.Dir, filepath.FromSlash(f.dst))
		if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", f.dst, err)
		}
		if err := os.WriteFile(dst, content, 0600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f.dst, err)
		}
		logger.Debug(ctx, "Wrote file", "path", f.dst)
		res.Files = append(res.Files, f.dst)
	}
	return res, nil
}

func render(name string, data templateData) ([]byte, error) {
	src, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}
	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func checkTargetDir(dir string, force bool) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	if len(entries) > 0 && !force {
		return fmt.Errorf("%w: %s", ErrDirNotEmpty, dir)
	}
	return nil
}

// Platforms lists the platforms with an adapter, sorted.
func Platforms() []string {
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
