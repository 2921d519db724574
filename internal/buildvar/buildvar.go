// Package buildvar builds the make variable set for one build variant.
//
// The full set for a variant is always the union of the common set, exactly
// one platform set (standalone or Houdini) and exactly one compression set
// (standalone blosc, Houdini blosc, or blosc disabled), plus the mode
// additions. The sets within an axis never mix.
package buildvar

import (
	"path/filepath"
	"strconv"

	"github.com/openvdb-build/vdbci/internal/hostenv"
	"github.com/openvdb-build/vdbci/internal/variant"
)

// Var is one KEY=VALUE assignment passed to make.
type Var struct {
	Key   string
	Value string
}

// Set is an ordered list of make variable assignments.
type Set []Var

// Args renders the set as KEY=VALUE command line arguments.
func (s Set) Args() []string {
	args := make([]string, len(s))
	for i, v := range s {
		args[i] = v.Key + "=" + v.Value
	}
	return args
}

// Lookup returns the value for key and whether the set contains it.
func (s Set) Lookup(key string) (string, bool) {
	for _, v := range s {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// For returns the complete variable set for the variant.
func For(cfg hostenv.Config, v variant.Variant) Set {
	set := common(cfg, v)
	if v.Standalone() {
		set = append(set, standalone(cfg)...)
	} else {
		set = append(set, houdini(cfg)...)
	}
	switch {
	case !v.Blosc:
		set = append(set, bloscDisabled()...)
	case v.Standalone():
		set = append(set, standaloneBlosc(cfg)...)
	default:
		set = append(set, houdiniBlosc(cfg)...)
	}
	if v.Mode == variant.Debug {
		set = append(set, Var{"DEBUG", "yes"})
	}
	return set
}

// common applies to every variant.
func common(cfg hostenv.Config, v variant.Variant) Set {
	return Set{
		{"abi", strconv.Itoa(v.ABI)},
		{"CXX", v.CXX()},
		{"DESTDIR", cfg.InstallDir},
		{"CONCURRENT_MALLOC_LIB", ""},
		{"DOXYGEN", "doxygen"},
		{"LOG4CPLUS_INCL_DIR", "/usr/include"},
		{"LOG4CPLUS_LIB_DIR", "/usr/lib"},
		{"PYTHON_INCL_DIR", "/usr/include/python2.7"},
		{"PYTHON_LIB_DIR", "/usr/lib/x86_64-linux-gnu"},
		{"PYTHON_VERSION", "2.7"},
		{"NUMPY_INCL_DIR", "/usr/lib/python2.7/dist-packages/numpy/core/include/numpy"},
		{"EPYDOC", ""},
		{"strict", "yes"},
	}
}

// standalone points every dependency at the system or from-source installs.
func standalone(cfg hostenv.Config) Set {
	cppunit := cfg.CppUnitDir()
	return Set{
		{"BOOST_INCL_DIR", "/usr/include"},
		{"BOOST_LIB_DIR", "/usr/lib/x86_64-linux-gnu"},
		{"BOOST_PYTHON_LIB_DIR", "/usr/lib/x86_64-linux-gnu"},
		{"BOOST_PYTHON_LIB", "-lboost_python"},
		{"TBB_INCL_DIR", "/usr/include"},
		{"TBB_LIB_DIR", "/usr/lib"},
		{"EXR_INCL_DIR", "/usr/include/OpenEXR"},
		{"EXR_LIB_DIR", "/usr/local/lib"},
		{"CPPUNIT_INCL_DIR", filepath.Join(cppunit, "include")},
		{"CPPUNIT_LIB_DIR", filepath.Join(cppunit, "lib")},
		{"GLFW_INCL_DIR", "/usr/include/GL"},
		{"GLFW_LIB_DIR", "/usr/lib"},
	}
}

// houdini points the same dependencies at the SDK's toolkit tree instead.
func houdini(cfg hostenv.Config) Set {
	hou := cfg.HoudiniDir()
	toolkit := filepath.Join(hou, "toolkit", "include")
	dsolib := filepath.Join(hou, "dsolib")
	return Set{
		{"BOOST_INCL_DIR", toolkit},
		{"BOOST_LIB_DIR", dsolib},
		{"TBB_INCL_DIR", toolkit},
		{"TBB_LIB_DIR", dsolib},
		{"EXR_INCL_DIR", toolkit},
		{"EXR_LIB_DIR", dsolib},
	}
}

func standaloneBlosc(cfg hostenv.Config) Set {
	blosc := cfg.BloscDir()
	return Set{
		{"BLOSC_INCL_DIR", filepath.Join(blosc, "include")},
		{"BLOSC_LIB_DIR", filepath.Join(blosc, "lib")},
	}
}

func houdiniBlosc(cfg hostenv.Config) Set {
	hou := cfg.HoudiniDir()
	return Set{
		{"BLOSC_INCL_DIR", filepath.Join(hou, "toolkit", "include")},
		{"BLOSC_LIB_DIR", filepath.Join(hou, "dsolib")},
	}
}

// bloscDisabled maps the blosc keys to empty values so make drops the feature.
func bloscDisabled() Set {
	return Set{
		{"BLOSC_INCL_DIR", ""},
		{"BLOSC_LIB_DIR", ""},
	}
}
