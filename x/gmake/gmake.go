// Package gmake wraps GNU make invocations against a variable-driven build tree.
package gmake

import (
	"context"
	"strconv"

	"github.com/openvdb-build/vdbci/internal/proc"
)

// Make drives make-based builds.
type Make struct {
	inv  proc.Invoker
	dir  string
	vars []string // KEY=VALUE in insertion order
	env  []string
	jobs int
}

// New returns a Make running in dir through inv.
func New(inv proc.Invoker, dir string) *Make {
	return &Make{inv: inv, dir: dir}
}

// Var adds a KEY=VALUE variable assignment.
func (m *Make) Var(key, value string) { m.vars = append(m.vars, key+"="+value) }

// Vars adds preformatted KEY=VALUE assignments.
func (m *Make) Vars(kv ...string) { m.vars = append(m.vars, kv...) }

// Env adds KEY=VALUE entries to the environment of every spawned make.
func (m *Make) Env(kv ...string) { m.env = append(m.env, kv...) }

// Jobs sets the -j parallelism. Zero leaves the flag off.
func (m *Make) Jobs(n int) { m.jobs = n }

// Run invokes "make <targets>" with all configured variables.
// Extra args are appended after the variables.
func (m *Make) Run(ctx context.Context, targets ...string) error {
	return m.run(ctx, m.jobs, targets, nil)
}

// RunJobs is Run with a one-off parallelism override, for targets that need
// their memory use bounded.
func (m *Make) RunJobs(ctx context.Context, jobs int, targets ...string) error {
	return m.run(ctx, jobs, targets, nil)
}

// RunArgs is Run with extra trailing arguments.
func (m *Make) RunArgs(ctx context.Context, targets []string, extra []string) error {
	return m.run(ctx, m.jobs, targets, extra)
}

func (m *Make) run(ctx context.Context, jobs int, targets, extra []string) error {
	args := make([]string, 0, len(targets)+len(m.vars)+len(extra)+2)
	args = append(args, targets...)
	args = append(args, m.vars...)
	if jobs > 0 {
		args = append(args, "-j", strconv.Itoa(jobs))
	}
	args = append(args, extra...)

	cmd := proc.Command("make", args...).WithDir(m.dir)
	if len(m.env) > 0 {
		cmd = cmd.WithEnv(m.env...)
	}
	return m.inv.Run(ctx, cmd)
}
