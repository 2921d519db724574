// Package ccache manages the compiler-wrapper scripts and cache statistics
// reporting for CI builds.
package ccache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openvdb-build/vdbci/internal/hostenv"
	"github.com/openvdb-build/vdbci/internal/proc"
	"github.com/openvdb-build/vdbci/internal/variant"
)

// MaxSize bounds the compiler cache so it fits the CI cache quota.
const MaxSize = "1G"

// WriteWrappers writes cc/c++ wrapper scripts into <home>/bin that route
// compilation through ccache with a bounded cache size. Existing wrappers
// are overwritten, so re-running install converges on the same scripts.
// It returns the directory the wrappers were written to.
func WriteWrappers(cfg hostenv.Config, v variant.Variant) (string, error) {
	bin := cfg.BinDir()
	if err := os.MkdirAll(bin, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", bin, err)
	}

	wrappers := map[string]string{
		"cc":  v.CC(),
		"c++": v.CXX(),
	}
	for name, compiler := range wrappers {
		script := fmt.Sprintf("#!/bin/sh\nexport CCACHE_MAXSIZE=%s\nexec ccache %s \"$@\"\n", MaxSize, compiler)
		path := filepath.Join(bin, name)
		if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
			return "", fmt.Errorf("failed to write wrapper %s: %w", path, err)
		}
	}
	return bin, nil
}

// Stats runs "ccache -s" so the before/after cache hit rates land in the CI
// log. Purely observational: it never affects the build.
func Stats(ctx context.Context, inv proc.Invoker) error {
	return inv.Run(ctx, proc.Command("ccache", "-s"))
}
