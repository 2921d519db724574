// Package pkgmgr installs OS development packages.
package pkgmgr

import (
	"context"

	"github.com/openvdb-build/vdbci/internal/proc"
)

// Apt drives apt-get. A missing package fails the whole run; there is no
// fallback source.
type Apt struct {
	inv proc.Invoker
}

// NewApt returns an Apt running through inv.
func NewApt(inv proc.Invoker) *Apt {
	return &Apt{inv: inv}
}

// Update refreshes the package index.
func (a *Apt) Update(ctx context.Context) error {
	return a.inv.Run(ctx, proc.Command("sudo", "apt-get", "update", "-qq"))
}

// Install installs the named packages non-interactively.
func (a *Apt) Install(ctx context.Context, pkgs ...string) error {
	args := append([]string{"apt-get", "install", "-y"}, pkgs...)
	return a.inv.Run(ctx, proc.Command("sudo", args...))
}
