package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnvOverlay optionally loads a .env file (if present) and applies
// CONE_PTRSIZE / CONE_PATH overrides on top of opts, the same layered
// env-then-flags pattern the reference pack's CLI tools use for local
// development overrides. A missing .env file is not an error.
func LoadEnvOverlay(opts Options) Options {
	_ = godotenv.Load()

	if v := os.Getenv("CONE_PTRSIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && (n == 4 || n == 8) {
			opts.PtrSize = PtrSize(n)
		}
	}
	if v := os.Getenv("CONE_PATH"); v != "" {
		opts.SourcePath = v
	}
	return opts
}
