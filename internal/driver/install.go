package driver

import (
	"context"
	"path/filepath"

	"github.com/openvdb-build/vdbci/internal/ccache"
	"github.com/openvdb-build/vdbci/internal/pkgmgr"
	"github.com/openvdb-build/vdbci/internal/sdk"
	"github.com/openvdb-build/vdbci/x/autotools"
	"github.com/openvdb-build/vdbci/x/cmake"
)

// Source archives for the dependencies CI builds itself. The standalone
// distro packages are either missing or too old.
const (
	bloscURL   = "https://github.com/Blosc/c-blosc/archive/v1.5.0.tar.gz"
	bloscDir   = "c-blosc-1.5.0"
	cppunitURL = "https://dev-www.libreoffice.org/src/cppunit-1.13.2.tar.gz"
	cppunitDir = "cppunit-1.13.2"
)

// standalonePackages are the distro dependencies of a standalone build.
var standalonePackages = []string{
	"libboost-all-dev",
	"libtbb-dev",
	"libilmbase-dev",
	"libopenexr-dev",
	"liblog4cplus-dev",
	"libglfw3-dev",
	"python-dev",
	"python-numpy",
	"python-epydoc",
	"doxygen",
}

// houdiniPackages is the reduced list a plugin build needs; the SDK brings
// its own copies of the rendering stack.
var houdiniPackages = []string{
	"liblog4cplus-dev",
	"python-dev",
	"doxygen",
}

// Install prepares the machine for the variant: compiler wrappers, OS
// packages, and either the from-source dependency builds (standalone) or
// the Houdini SDK (plugin builds).
func (d *Driver) Install(ctx context.Context) error {
	d.logger.Infof("install task for %s", d.v)

	if !d.skip("write compiler wrappers to " + d.cfg.BinDir()) {
		if _, err := ccache.WriteWrappers(d.cfg, d.v); err != nil {
			return err
		}
	}
	if err := ccache.Stats(ctx, d.inv); err != nil {
		return err
	}

	apt := pkgmgr.NewApt(d.inv)
	if d.v.Standalone() {
		if err := apt.Install(ctx, standalonePackages...); err != nil {
			return err
		}
		if d.v.Blosc {
			if err := d.installBlosc(ctx); err != nil {
				return err
			}
		}
		return d.installCppUnit(ctx)
	}

	if err := apt.Install(ctx, houdiniPackages...); err != nil {
		return err
	}
	if d.skip("install houdini " + d.v.Platform + " sdk") {
		return nil
	}
	hou := sdk.New(d.cfg, d.inv, d.client)
	return hou.Install(ctx, d.v.Platform, d.v.LegacyHoudini())
}

// installBlosc fetches, builds and installs c-blosc with cmake.
func (d *Driver) installBlosc(ctx context.Context) error {
	if d.skip("build c-blosc from " + bloscURL) {
		return nil
	}
	srcRoot := filepath.Join(d.cfg.DepsDir(), "src")
	if err := d.client.DownloadAndUntar(ctx, bloscURL, srcRoot); err != nil {
		return err
	}

	src := filepath.Join(srcRoot, bloscDir)
	c := cmake.New(d.inv, src, filepath.Join(src, "build"), d.cfg.BloscDir())
	c.BuildType("Release")
	c.Define("CMAKE_C_COMPILER", d.v.CC())
	c.DefineBool("BUILD_TESTS", false)
	c.DefineBool("BUILD_BENCHMARKS", false)
	if err := c.Configure(ctx); err != nil {
		return err
	}
	if err := c.Build(ctx); err != nil {
		return err
	}
	return c.Install(ctx)
}

// installCppUnit fetches, builds and installs the unit-test framework with
// the classic configure/make flow.
func (d *Driver) installCppUnit(ctx context.Context) error {
	if d.skip("build cppunit from " + cppunitURL) {
		return nil
	}
	srcRoot := filepath.Join(d.cfg.DepsDir(), "src")
	if err := d.client.DownloadAndUntar(ctx, cppunitURL, srcRoot); err != nil {
		return err
	}

	src := filepath.Join(srcRoot, cppunitDir)
	a := autotools.New(d.inv, src, src, d.cfg.CppUnitDir())
	a.Env("CXX", d.v.CXX())
	if err := a.Configure(ctx, "--disable-doxygen"); err != nil {
		return err
	}
	if err := a.Build(ctx); err != nil {
		return err
	}
	return a.Install(ctx)
}
