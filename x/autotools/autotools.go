// Package autotools wraps the classic configure/make/make-install workflow.
package autotools

import (
	"context"
	"os"
	"path/filepath"

	"github.com/openvdb-build/vdbci/internal/proc"
)

// AutoTools drives Autotools-style builds.
type AutoTools struct {
	inv        proc.Invoker
	sourceDir  string
	buildDir   string
	installDir string
	env        []string
}

// New returns a ready-to-use AutoTools running through inv.
func New(inv proc.Invoker, sourceDir, buildDir, installDir string) *AutoTools {
	return &AutoTools{
		inv:        inv,
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
	}
}

// Env adds a KEY=VALUE entry to the environment of every command spawned later.
func (a *AutoTools) Env(key, value string) {
	a.env = append(a.env, key+"="+value)
}

// Configure runs <sourceDir>/configure inside buildDir.
// --prefix is prepended automatically when installDir is set.
// Extra flags are appended after --prefix.
func (a *AutoTools) Configure(ctx context.Context, args ...string) error {
	dir := a.workDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	exe := filepath.Join(a.sourceDir, "configure")
	if dir == "." {
		exe = "./configure"
	}
	flags := make([]string, 0, 1+len(args))
	if a.installDir != "" {
		flags = append(flags, "--prefix="+a.installDir)
	}
	return a.run(ctx, exe, append(flags, args...))
}

// Build runs "make" with optional extra arguments.
func (a *AutoTools) Build(ctx context.Context, args ...string) error {
	return a.run(ctx, "make", args)
}

// Install runs "make install" with optional extra arguments appended.
func (a *AutoTools) Install(ctx context.Context, args ...string) error {
	return a.run(ctx, "make", append([]string{"install"}, args...))
}

// OutputDir returns installDir if set, otherwise buildDir.
func (a *AutoTools) OutputDir() string {
	if a.installDir != "" {
		return a.installDir
	}
	return a.buildDir
}

func (a *AutoTools) workDir() string {
	if a.buildDir == "" {
		return "."
	}
	return a.buildDir
}

func (a *AutoTools) run(ctx context.Context, name string, args []string) error {
	cmd := proc.Command(name, args...).WithDir(a.workDir())
	if len(a.env) > 0 {
		cmd = cmd.WithEnv(a.env...)
	}
	return a.inv.Run(ctx, cmd)
}
