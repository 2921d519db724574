package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openvdb-build/vdbci/internal/hostenv"
	"github.com/openvdb-build/vdbci/internal/proc"
	"github.com/openvdb-build/vdbci/internal/variant"
)

func testConfig(t *testing.T) hostenv.Config {
	t.Helper()
	return hostenv.Config{
		Home:       t.TempDir(),
		Root:       t.TempDir(),
		SourceDir:  t.TempDir(),
		InstallDir: filepath.Join(t.TempDir(), "install"),
		Jobs:       2,
	}
}

func mustVariant(t *testing.T, abi, blosc, mode, platform, compiler string) variant.Variant {
	t.Helper()
	v, err := variant.Parse(abi, blosc, mode, platform, compiler)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return v
}

func TestScriptHeaderModeRunsOnlyHygieneCheck(t *testing.T) {
	rec := proc.NewRecorder()
	v := mustVariant(t, "4", "yes", "header", "none", "gcc")
	d := New(testConfig(t), v, rec)

	if err := d.Script(context.Background()); err != nil {
		t.Fatalf("Script failed: %v", err)
	}

	lines := rec.Lines()
	if indexOf(lines, "header_test") == -1 {
		t.Fatalf("header_test not invoked: %v", lines)
	}
	for _, forbidden := range []string{"make install", "make test", "make pytest"} {
		if indexOf(lines, forbidden) != -1 {
			t.Errorf("header mode ran %q: %v", forbidden, lines)
		}
	}
}

func TestScriptGCCReleasePrebuildsBeforeInstall(t *testing.T) {
	rec := proc.NewRecorder()
	v := mustVariant(t, "4", "yes", "release", "none", "gcc")
	d := New(testConfig(t), v, rec)

	if err := d.Script(context.Background()); err != nil {
		t.Fatalf("Script failed: %v", err)
	}
	lines := rec.Lines()

	install := indexOf(lines, "make install")
	for _, target := range []string{"vdb_view", "vdb_render", "vdb_test"} {
		i := indexOf(lines, target)
		if i == -1 {
			t.Fatalf("pre-build target %s not invoked: %v", target, lines)
		}
		if i > install {
			t.Errorf("%s built after install: %v", target, lines)
		}
		if !strings.Contains(lines[i], "-j 1") {
			t.Errorf("%s not built at reduced parallelism: %q", target, lines[i])
		}
	}
	if i := indexOf(lines, "make test"); i == -1 || i < install {
		t.Errorf("test target missing or out of order: %v", lines)
	}
	if indexOf(lines, "pytest") == -1 {
		t.Errorf("pytest target missing: %v", lines)
	}
}

func TestScriptClangSkipsPrebuild(t *testing.T) {
	rec := proc.NewRecorder()
	v := mustVariant(t, "4", "yes", "release", "none", "clang")
	d := New(testConfig(t), v, rec)

	if err := d.Script(context.Background()); err != nil {
		t.Fatalf("Script failed: %v", err)
	}
	lines := rec.Lines()
	for _, target := range []string{"vdb_view", "vdb_render"} {
		if indexOf(lines, "make "+target) != -1 {
			t.Errorf("clang build ran the gcc pre-build target %s: %v", target, lines)
		}
	}
}

func TestScriptDebugSkipsPrebuild(t *testing.T) {
	rec := proc.NewRecorder()
	v := mustVariant(t, "4", "yes", "debug", "none", "gcc")
	d := New(testConfig(t), v, rec)

	if err := d.Script(context.Background()); err != nil {
		t.Fatalf("Script failed: %v", err)
	}
	lines := rec.Lines()
	if indexOf(lines, "vdb_view") != -1 {
		t.Errorf("debug build ran the release-only pre-build: %v", lines)
	}
	if indexOf(lines, "DEBUG=yes") == -1 {
		t.Errorf("debug build lost the DEBUG variable: %v", lines)
	}
}

func TestScriptFailFast(t *testing.T) {
	inv := &failingInvoker{failOn: "vdb_render"}
	v := mustVariant(t, "4", "yes", "release", "none", "gcc")
	d := New(testConfig(t), v, inv)

	err := d.Script(context.Background())
	if err == nil {
		t.Fatal("Script succeeded despite a failing command")
	}
	var exitErr *proc.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Script error = %T, want *proc.ExitError", err)
	}

	lines := inv.lines()
	if indexOf(lines, "vdb_view") == -1 {
		t.Errorf("command before the failure did not run: %v", lines)
	}
	for _, after := range []string{"vdb_test", "make install", "pytest", "ccache"} {
		if indexOf(lines, after) != -1 {
			t.Errorf("command %q ran after the failure: %v", after, lines)
		}
	}
}

func TestScriptExtraMakeArgs(t *testing.T) {
	rec := proc.NewRecorder()
	v := mustVariant(t, "4", "no", "release", "none", "clang")
	d := New(testConfig(t), v, rec)
	d.ExtraMakeArgs = []string{"verbose=yes"}

	if err := d.Script(context.Background()); err != nil {
		t.Fatalf("Script failed: %v", err)
	}
	i := indexOf(rec.Lines(), "make install")
	if i == -1 || !strings.Contains(rec.Lines()[i], "verbose=yes") {
		t.Errorf("extra make args not passed to install: %v", rec.Lines())
	}
}

func TestScriptHoudini(t *testing.T) {
	cfg := testConfig(t)
	rec := proc.NewRecorder()
	v := mustVariant(t, "4", "yes", "release", "16.0", "gcc")
	d := New(cfg, v, rec)

	// Lay out the pieces the houdini path touches on disk.
	makefile := filepath.Join(cfg.HoudiniDir(), "toolkit", "makefiles", "Makefile.gnu")
	if err := os.MkdirAll(filepath.Dir(makefile), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(makefile, []byte("TAGINFO = $(shell sesitag -m)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	pluginDir := filepath.Join(cfg.SourceDir, "openvdb_houdini")
	if err := os.MkdirAll(pluginDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "SOP_OpenVDB.h"), []byte("// header"), 0o644); err != nil {
		t.Fatal(err)
	}
	lib := filepath.Join(cfg.SourceDir, "libopenvdb_houdini.so")
	if err := os.WriteFile(lib, []byte("elf"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := d.Script(context.Background()); err != nil {
		t.Fatalf("Script failed: %v", err)
	}

	lines := rec.Lines()
	env := indexOf(lines, "houdini_setup_bash")
	installLib := indexOf(lines, "install_lib")
	houdiniLib := indexOf(lines, "houdinilib")
	if env == -1 || installLib == -1 || houdiniLib == -1 {
		t.Fatalf("missing houdini build steps: %v", lines)
	}
	if !(env < installLib && installLib < houdiniLib) {
		t.Errorf("houdini steps out of order: %v", lines)
	}
	if indexOf(lines, "make test") != -1 {
		t.Errorf("houdini build ran the standalone test target: %v", lines)
	}

	// The makefile patch and the artifact relocation are filesystem effects.
	patched, err := os.ReadFile(makefile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(patched), "# ") {
		t.Errorf("taginfo line not disabled: %q", patched)
	}
	if _, err := os.Stat(filepath.Join(cfg.InstallDir, "include", "openvdb_houdini", "SOP_OpenVDB.h")); err != nil {
		t.Errorf("plugin header not relocated: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.InstallDir, "lib", "libopenvdb_houdini.so")); err != nil {
		t.Errorf("plugin library not relocated: %v", err)
	}
}
