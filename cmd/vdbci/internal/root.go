package internal

import (
	"fmt"
	"log"
	"os"

	"github.com/google/shlex"
	"github.com/mongodb/grip"
	"github.com/spf13/cobra"

	"github.com/openvdb-build/vdbci/internal/driver"
	"github.com/openvdb-build/vdbci/internal/hostenv"
	"github.com/openvdb-build/vdbci/internal/proc"
	"github.com/openvdb-build/vdbci/internal/variant"
)

// VDBCI_MAKE_ARGS passes extra arguments to every top-level make run.
const makeArgsEnv = "VDBCI_MAKE_ARGS"

var (
	flagHome       string
	flagRoot       string
	flagSourceDir  string
	flagInstallDir string
	flagJobs       int
	flagDryRun     bool
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "vdbci",
	Short: "vdbci drives OpenVDB CI builds across the variant matrix",
	Long: `vdbci configures and drives one OpenVDB CI build variant: it installs
OS packages and third-party dependencies, fetches the Houdini SDK when a
platform version is given, and runs the make-based build and test targets.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagHome, "home", "", "Override the home directory for compiler wrappers")
	pf.StringVar(&flagRoot, "root", "", "Override the working mount point")
	pf.StringVar(&flagSourceDir, "source-dir", "", "Override the OpenVDB checkout directory")
	pf.StringVar(&flagInstallDir, "install-dir", "", "Override the install destination")
	pf.IntVar(&flagJobs, "jobs", 0, "Override the build parallelism")
	pf.BoolVar(&flagDryRun, "dry-run", false, "Record commands without executing them")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Log the full variable set before building")
}

// newDriver parses the five positional matrix parameters and assembles a
// driver from the flag-adjusted configuration.
func newDriver(args []string) (*driver.Driver, error) {
	v, err := variant.Parse(args[0], args[1], args[2], args[3], args[4])
	if err != nil {
		return nil, err
	}

	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	extra, err := extraMakeArgs(os.Getenv(makeArgsEnv))
	if err != nil {
		return nil, err
	}

	var inv proc.Invoker
	if flagDryRun {
		inv = proc.NewRecorder()
	} else {
		inv = proc.NewExec()
	}

	if flagVerbose {
		grip.Infof("variant %s, config %+v", v, cfg)
	}

	d := driver.New(cfg, v, inv)
	d.ExtraMakeArgs = extra
	d.DryRun = flagDryRun
	return d, nil
}

func buildConfig() (hostenv.Config, error) {
	cfg, err := hostenv.Default()
	if err != nil {
		return cfg, err
	}
	if flagHome != "" {
		cfg.Home = flagHome
	}
	if flagRoot != "" {
		cfg.Root = flagRoot
	}
	if flagSourceDir != "" {
		cfg.SourceDir = flagSourceDir
	}
	if flagInstallDir != "" {
		cfg.InstallDir = flagInstallDir
	}
	if flagJobs > 0 {
		cfg.Jobs = flagJobs
	}
	return cfg, nil
}

// extraMakeArgs splits a shell-quoted argument string.
func extraMakeArgs(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	args, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", makeArgsEnv, err)
	}
	return args, nil
}
