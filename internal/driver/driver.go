// Package driver runs the two CI tasks, install and script, for one build
// variant. Every external command goes through a proc.Invoker and any
// failure aborts the run immediately.
package driver

import (
	"github.com/mongodb/grip"

	"github.com/openvdb-build/vdbci/internal/fetch"
	"github.com/openvdb-build/vdbci/internal/hostenv"
	"github.com/openvdb-build/vdbci/internal/proc"
	"github.com/openvdb-build/vdbci/internal/variant"
)

// Driver executes CI tasks for a single variant.
type Driver struct {
	cfg    hostenv.Config
	v      variant.Variant
	inv    proc.Invoker
	client *fetch.Client
	logger grip.Journaler

	// ExtraMakeArgs are appended to every top-level make invocation.
	ExtraMakeArgs []string

	// DryRun narrates downloads and filesystem changes instead of doing
	// them. External commands still reach the Invoker, which is expected
	// to be a Recorder in that case.
	DryRun bool
}

// skip reports whether a side-effecting step should be skipped, logging the
// step it replaces when it is.
func (d *Driver) skip(what string) bool {
	if d.DryRun {
		d.logger.Infof("dry-run: would %s", what)
	}
	return d.DryRun
}

// New returns a Driver for the variant.
func New(cfg hostenv.Config, v variant.Variant, inv proc.Invoker) *Driver {
	return &Driver{
		cfg:    cfg,
		v:      v,
		inv:    inv,
		client: fetch.New(),
		logger: grip.NewJournaler("vdbci"),
	}
}
