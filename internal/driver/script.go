package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/openvdb-build/vdbci/internal/buildvar"
	"github.com/openvdb-build/vdbci/internal/ccache"
	"github.com/openvdb-build/vdbci/internal/sdk"
	"github.com/openvdb-build/vdbci/internal/variant"
	"github.com/openvdb-build/vdbci/x/gmake"
)

// Binaries that blow past the CI memory quota when compiled in parallel.
// They are built one at a time before the full install.
var memoryHungryTargets = []string{"vdb_view", "vdb_render", "vdb_test"}

// Script builds and tests the variant. Standalone variants run the full
// make install/test cycle (or only the include-hygiene check in header
// mode); Houdini variants build the plugin library against the SDK.
func (d *Driver) Script(ctx context.Context) error {
	d.logger.Infof("script task for %s", d.v)

	var err error
	if d.v.Standalone() {
		err = d.scriptStandalone(ctx)
	} else {
		err = d.scriptHoudini(ctx)
	}
	if err != nil {
		return err
	}
	return ccache.Stats(ctx, d.inv)
}

func (d *Driver) scriptStandalone(ctx context.Context) error {
	mk := gmake.New(d.inv, d.cfg.SourceDir)
	mk.Vars(buildvar.For(d.cfg, d.v).Args()...)
	mk.Jobs(d.cfg.Jobs)

	if d.v.Mode == variant.Header {
		// The hygiene check replaces the build and test run entirely.
		return mk.RunArgs(ctx, []string{"header_test"}, d.ExtraMakeArgs)
	}

	// gcc runs out of memory linking these at full parallelism; clang does
	// not, so it skips the serialized pre-build.
	if d.v.Compiler == variant.GCC && d.v.Mode == variant.Release {
		for _, target := range memoryHungryTargets {
			if err := mk.RunJobs(ctx, 1, target); err != nil {
				return err
			}
		}
	}

	if err := mk.RunArgs(ctx, []string{"install"}, d.ExtraMakeArgs); err != nil {
		return err
	}
	if err := mk.Run(ctx, "test"); err != nil {
		return err
	}
	return mk.Run(ctx, "pytest")
}

func (d *Driver) scriptHoudini(ctx context.Context) error {
	hou := sdk.New(d.cfg, d.inv, d.client)

	env, err := hou.Environ(ctx)
	if err != nil {
		return err
	}
	if !d.skip("disable the sdk makefile taginfo step") {
		if err := hou.DisableTagInfo(); err != nil {
			return err
		}
	}

	mk := gmake.New(d.inv, d.cfg.SourceDir)
	mk.Env(env...)
	mk.Vars(buildvar.For(d.cfg, d.v).Args()...)
	mk.Jobs(d.cfg.Jobs)

	if err := mk.RunArgs(ctx, []string{"install_lib"}, d.ExtraMakeArgs); err != nil {
		return err
	}
	if err := mk.Run(ctx, "houdinilib"); err != nil {
		return err
	}
	if d.skip("relocate plugin headers and library into " + d.cfg.InstallDir) {
		return nil
	}
	return d.relocateHoudiniArtifacts()
}

// relocateHoudiniArtifacts moves the plugin headers and the built shared
// library into the install tree the platform expects. make installs the
// base library but knows nothing about these.
func (d *Driver) relocateHoudiniArtifacts() error {
	includeDir := filepath.Join(d.cfg.InstallDir, "include", "openvdb_houdini")
	headers, err := filepath.Glob(filepath.Join(d.cfg.SourceDir, "openvdb_houdini", "*.h"))
	if err != nil {
		return fmt.Errorf("failed to list plugin headers: %w", err)
	}
	for _, h := range headers {
		if err := copyInto(h, includeDir); err != nil {
			return err
		}
	}

	lib := filepath.Join(d.cfg.SourceDir, "libopenvdb_houdini.so")
	return copyInto(lib, filepath.Join(d.cfg.InstallDir, "lib"))
}

// copyInto copies src into destDir, overwriting any previous copy.
func copyInto(src, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", destDir, err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	dest := filepath.Join(destDir, filepath.Base(src))
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}
