package ccache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openvdb-build/vdbci/internal/hostenv"
	"github.com/openvdb-build/vdbci/internal/proc"
	"github.com/openvdb-build/vdbci/internal/variant"
)

func TestWriteWrappers(t *testing.T) {
	cfg := hostenv.Config{Home: t.TempDir()}
	v := variant.Variant{Compiler: variant.Clang}

	bin, err := WriteWrappers(cfg, v)
	if err != nil {
		t.Fatalf("WriteWrappers failed: %v", err)
	}
	if bin != cfg.BinDir() {
		t.Errorf("returned dir = %q, want %q", bin, cfg.BinDir())
	}

	for name, compiler := range map[string]string{"cc": "clang", "c++": "clang++"} {
		path := filepath.Join(bin, name)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("wrapper %s missing: %v", name, err)
		}
		script := string(data)
		if !strings.Contains(script, "ccache "+compiler) {
			t.Errorf("wrapper %s = %q, want it to exec ccache %s", name, script, compiler)
		}
		if !strings.Contains(script, "CCACHE_MAXSIZE="+MaxSize) {
			t.Errorf("wrapper %s does not bound the cache size", name)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode()&0o111 == 0 {
			t.Errorf("wrapper %s is not executable (mode %v)", name, info.Mode())
		}
	}
}

func TestWriteWrappersIdempotent(t *testing.T) {
	cfg := hostenv.Config{Home: t.TempDir()}
	v := variant.Variant{Compiler: variant.GCC}

	if _, err := WriteWrappers(cfg, v); err != nil {
		t.Fatalf("first WriteWrappers failed: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(cfg.BinDir(), "cc"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := WriteWrappers(cfg, v); err != nil {
		t.Fatalf("second WriteWrappers failed: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(cfg.BinDir(), "cc"))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("re-running WriteWrappers changed the wrapper content")
	}
}

func TestStats(t *testing.T) {
	rec := proc.NewRecorder()
	if err := Stats(context.Background(), rec); err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if got, want := rec.Calls[0].String(), "ccache -s"; got != want {
		t.Errorf("command = %q, want %q", got, want)
	}
}
