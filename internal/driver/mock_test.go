package driver

import (
	"context"
	"strings"

	"github.com/openvdb-build/vdbci/internal/proc"
)

// failingInvoker records commands and fails the first one whose command
// line contains failOn.
type failingInvoker struct {
	failOn string
	calls  []proc.Cmd
}

func (f *failingInvoker) Run(ctx context.Context, cmd proc.Cmd) error {
	line := cmd.String()
	if f.failOn != "" && strings.Contains(line, f.failOn) {
		return &proc.ExitError{Cmd: line, Code: 2}
	}
	f.calls = append(f.calls, cmd)
	return nil
}

func (f *failingInvoker) lines() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.String()
	}
	return out
}

// indexOf returns the position of the first line containing substr, or -1.
func indexOf(lines []string, substr string) int {
	for i, l := range lines {
		if strings.Contains(l, substr) {
			return i
		}
	}
	return -1
}
