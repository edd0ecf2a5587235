// Package build holds values stamped into the binary at link time.
package build

var (
	// Version is overridden with -ldflags "-X github.com/ieshan/bit2/internal/build.Version=..."
	Version = "0.0.0"
	// Slug is the binary name, also used for the config directory and env prefix.
	Slug = "bit2"
	// AppName is the human readable name.
	AppName = "bit2"
)
