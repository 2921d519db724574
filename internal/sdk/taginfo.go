package sdk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DisableTagInfo patches the SDK makefile so plugin builds skip the
// timestamp-tagging step. Tagged binaries embed the build time, which
// defeats the compiler cache; untagged ones rebuild reproducibly but will
// not load in a live Houdini session, which CI never starts.
func (h *Houdini) DisableTagInfo() error {
	makefile := filepath.Join(h.Dir(), "toolkit", "makefiles", "Makefile.gnu")
	return DisableTagInfo(makefile)
}

// DisableTagInfo comments out every taginfo line in makefile, in place.
// Already-commented lines are left alone, so a second run is a no-op.
func DisableTagInfo(makefile string) error {
	data, err := os.ReadFile(makefile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", makefile, err)
	}

	lines := strings.Split(string(data), "\n")
	changed := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || !strings.Contains(strings.ToLower(trimmed), "taginfo") {
			continue
		}
		lines[i] = "# " + line
		changed = true
	}
	if !changed {
		return nil
	}

	info, err := os.Stat(makefile)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", makefile, err)
	}
	if err := os.WriteFile(makefile, []byte(strings.Join(lines, "\n")), info.Mode()); err != nil {
		return fmt.Errorf("failed to patch %s: %w", makefile, err)
	}
	return nil
}
