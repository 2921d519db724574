// Package variant models one point in the CI build matrix.
package variant

import (
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/mod/semver"
)

// ErrInvalid is wrapped by every parse error so callers can detect a bad
// variant with errors.Is.
var ErrInvalid = errors.New("invalid build variant")

// Mode selects what the script task builds and runs.
type Mode string

const (
	Release Mode = "release"
	Debug   Mode = "debug"
	// Header replaces the build/test run with the include-hygiene check.
	Header Mode = "header"
)

// Compiler selects the host toolchain.
type Compiler string

const (
	GCC   Compiler = "gcc"
	Clang Compiler = "clang"
)

// PlatformNone marks a standalone build with no Houdini SDK involved.
const PlatformNone = "none"

// Houdini 16.5 dropped the legacy runtime libraries from the SDK tarball;
// anything older needs them vendored in. Exactly 16.5 is not legacy.
const legacyBoundary = "v16.5"

// Variant is one immutable build configuration. All fields are validated by
// Parse; a zero Variant is not meaningful.
type Variant struct {
	ABI      int
	Blosc    bool
	Mode     Mode
	Platform string // PlatformNone or a Houdini major version such as "16.5"
	Compiler Compiler
}

// Parse validates the five raw matrix parameters and returns the variant.
// Every failure wraps ErrInvalid.
func Parse(abi, blosc, mode, platform, compiler string) (Variant, error) {
	var v Variant

	n, err := strconv.Atoi(abi)
	if err != nil || n <= 0 {
		return v, fmt.Errorf("%w: abi %q is not a positive integer", ErrInvalid, abi)
	}
	v.ABI = n

	switch blosc {
	case "yes":
		v.Blosc = true
	case "no":
		v.Blosc = false
	default:
		return v, fmt.Errorf("%w: blosc %q (want yes or no)", ErrInvalid, blosc)
	}

	switch Mode(mode) {
	case Release, Debug, Header:
		v.Mode = Mode(mode)
	default:
		return v, fmt.Errorf("%w: mode %q (want release, debug or header)", ErrInvalid, mode)
	}

	if platform == PlatformNone {
		v.Platform = PlatformNone
	} else if semver.IsValid("v" + platform) {
		v.Platform = platform
	} else {
		return v, fmt.Errorf("%w: platform %q (want none or a version like 16.5)", ErrInvalid, platform)
	}

	switch Compiler(compiler) {
	case GCC, Clang:
		v.Compiler = Compiler(compiler)
	default:
		return v, fmt.Errorf("%w: compiler %q (want gcc or clang)", ErrInvalid, compiler)
	}

	return v, nil
}

// Standalone reports whether the variant builds without a Houdini SDK.
func (v Variant) Standalone() bool { return v.Platform == PlatformNone }

// LegacyHoudini reports whether the target SDK predates 16.5 and so needs
// the legacy shared libraries vendored into its library directory.
func (v Variant) LegacyHoudini() bool {
	if v.Standalone() {
		return false
	}
	return semver.Compare("v"+v.Platform, legacyBoundary) < 0
}

// CC returns the C compiler command for the variant.
func (v Variant) CC() string {
	if v.Compiler == Clang {
		return "clang"
	}
	return "gcc"
}

// CXX returns the C++ compiler command for the variant.
func (v Variant) CXX() string {
	if v.Compiler == Clang {
		return "clang++"
	}
	return "g++"
}

// String renders the variant the way CI labels a matrix cell.
func (v Variant) String() string {
	blosc := "no"
	if v.Blosc {
		blosc = "yes"
	}
	return fmt.Sprintf("abi%d-blosc%s-%s-%s-%s", v.ABI, blosc, v.Mode, v.Platform, v.Compiler)
}
