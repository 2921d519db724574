// Package hostenv holds the filesystem layout the CI driver works in.
package hostenv

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config is built once at startup and threaded through every component;
// nothing below the CLI layer reads ambient environment variables mid-run.
type Config struct {
	// Home is where the compiler wrapper scripts go (<home>/bin).
	Home string
	// Root is the working mount point for sources, dependency builds and
	// the unpacked Houdini SDK.
	Root string
	// SourceDir is the OpenVDB checkout the build tool runs in.
	SourceDir string
	// InstallDir is the DESTDIR handed to make install.
	InstallDir string
	// Jobs is the parallelism passed to the build tool.
	Jobs int
}

// Default returns the layout CI machines use.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("failed to resolve home dir: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to resolve working dir: %w", err)
	}
	root := "/mnt/openvdb"
	return Config{
		Home:       home,
		Root:       root,
		SourceDir:  wd,
		InstallDir: filepath.Join(root, "install"),
		Jobs:       2,
	}, nil
}

// BinDir is where the ccache compiler wrappers are written.
func (c Config) BinDir() string { return filepath.Join(c.Home, "bin") }

// DepsDir holds third-party dependencies built from source.
func (c Config) DepsDir() string { return filepath.Join(c.Root, "deps") }

// BloscDir is the install prefix for the from-source c-blosc build.
func (c Config) BloscDir() string { return filepath.Join(c.DepsDir(), "blosc") }

// CppUnitDir is the install prefix for the from-source CppUnit build.
func (c Config) CppUnitDir() string { return filepath.Join(c.DepsDir(), "cppunit") }

// HoudiniDir is where the platform SDK is unpacked.
func (c Config) HoudiniDir() string { return filepath.Join(c.Root, "hou") }
