// Package sdk fetches and prepares the Houdini SDK for plugin builds.
package sdk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mongodb/grip"

	"github.com/openvdb-build/vdbci/internal/fetch"
	"github.com/openvdb-build/vdbci/internal/hostenv"
	"github.com/openvdb-build/vdbci/internal/proc"
)

// The SDK tarball unpacks to a few GB; refuse to start without headroom.
const minFreeSpace = 8 << 30

// archiveHost serves the per-major-version SDK tarballs CI mirrors.
const archiveHost = "https://archive.sidefx.com/ci"

// Shared libraries the SDK stopped bundling at 16.5. Older SDKs expect them
// in dsolib, so we vendor the system copies in.
var legacyLibs = []string{
	"libjemalloc.so.1",
	"libtbb.so.2",
	"libtbbmalloc.so.2",
}

// legacyLibDir is where the system package manager puts the libraries above.
const legacyLibDir = "/usr/lib/x86_64-linux-gnu"

// Houdini manages one unpacked SDK tree under the CI root.
type Houdini struct {
	// Host is the archive mirror; overridable for site-local mirrors.
	Host string
	// MinFree is the free-space requirement checked before unpacking.
	MinFree uint64
	// LibSource is where the system copies of the legacy libraries live.
	LibSource string

	cfg    hostenv.Config
	inv    proc.Invoker
	client *fetch.Client
	logger grip.Journaler
}

// New returns a Houdini for cfg running commands through inv.
func New(cfg hostenv.Config, inv proc.Invoker, client *fetch.Client) *Houdini {
	return &Houdini{
		Host:      archiveHost,
		MinFree:   minFreeSpace,
		LibSource: legacyLibDir,
		cfg:       cfg,
		inv:       inv,
		client:    client,
		logger:    grip.NewJournaler("vdbci.sdk"),
	}
}

// Dir returns the SDK root.
func (h *Houdini) Dir() string { return h.cfg.HoudiniDir() }

// DsoLib returns the SDK's shared-library directory.
func (h *Houdini) DsoLib() string { return filepath.Join(h.Dir(), "dsolib") }

// Install downloads the SDK tarball for the given major version, unpacks it
// under the CI root and, for SDKs below 16.5, vendors the legacy shared
// libraries into dsolib.
func (h *Houdini) Install(ctx context.Context, major string, legacy bool) error {
	if err := fetch.CheckFreeSpace(h.cfg.Root, h.MinFree); err != nil {
		return err
	}
	url := h.ArchiveURL(major)
	h.logger.Infof("installing houdini %s under %s", major, h.Dir())
	if err := h.client.DownloadAndUntar(ctx, url, h.Dir()); err != nil {
		return fmt.Errorf("failed to install houdini %s: %w", major, err)
	}
	if legacy {
		if err := vendorLibs(h.LibSource, h.DsoLib(), legacyLibs); err != nil {
			return err
		}
	}
	return nil
}

// ArchiveURL returns the SDK tarball location for a major version.
func (h *Houdini) ArchiveURL(major string) string {
	return fmt.Sprintf("%s/houdini-%s.tar.gz", h.Host, major)
}

func vendorLibs(srcDir, destDir string, libs []string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", destDir, err)
	}
	for _, lib := range libs {
		if err := copyFile(filepath.Join(srcDir, lib), filepath.Join(destDir, lib)); err != nil {
			return fmt.Errorf("failed to vendor %s: %w", lib, err)
		}
	}
	return nil
}

// Environ runs the SDK's environment setup script in a subshell and returns
// the resulting environment as KEY=VALUE entries. The driver threads these
// into later commands rather than mutating the process environment.
func (h *Houdini) Environ(ctx context.Context) ([]string, error) {
	var out strings.Builder
	e := &capturingExec{stdout: &out, inv: h.inv}
	script := fmt.Sprintf("cd %s && . ./houdini_setup_bash >/dev/null && env", h.Dir())
	if err := e.run(ctx, proc.Command("bash", "-c", script)); err != nil {
		return nil, fmt.Errorf("failed to source houdini environment: %w", err)
	}
	return ParseEnviron(out.String()), nil
}

// ParseEnviron turns `env` output into KEY=VALUE entries, dropping
// malformed lines (exported bash functions and their bodies).
func ParseEnviron(out string) []string {
	var env []string
	for _, line := range strings.Split(out, "\n") {
		k, _, ok := strings.Cut(line, "=")
		if !ok || !validEnvKey(k) {
			continue
		}
		env = append(env, line)
	}
	return env
}

func validEnvKey(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// capturingExec adapts the Invoker so the setup shell's stdout can be read
// back instead of streamed to the log.
type capturingExec struct {
	stdout io.Writer
	inv    proc.Invoker
}

func (c *capturingExec) run(ctx context.Context, cmd proc.Cmd) error {
	if e, ok := c.inv.(*proc.Exec); ok {
		captured := *e
		captured.Stdout = c.stdout
		return captured.Run(ctx, cmd)
	}
	return c.inv.Run(ctx, cmd)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}
