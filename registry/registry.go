// Package registry resolves the list of target executables for a run.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/arenads/ds-acceptor/types"
)

// DefaultTargets is the fallback target list used when neither a targets
// file nor a build configuration is available.
var DefaultTargets = []string{
	"usertest_list",
	"usertest_msqueue",
	"usertest_mpsc",
	"usertest_vyukhov",
	"usertest_folly_spsc",
	"usertest_bst",
	"usertest_bintree",
}

var usertestAppsRe = regexp.MustCompile(`(?m)^USERTEST_APPS\s*=\s*(.+?)\s*$`)

// Config contains registry configuration.
type Config struct {
	Log            log.Logger
	WorkDir        string
	TargetsFile    string // defaults to targets.yaml in WorkDir
	MakefilePath   string // defaults to Makefile in WorkDir
	DefaultTimeout time.Duration
}

// targetConfig is one entry in a targets file.
type targetConfig struct {
	Name    string         `yaml:"name"`
	Timeout *time.Duration `yaml:"timeout,omitempty"`
}

// targetsFile is the schema of the optional YAML targets file.
type targetsFile struct {
	Targets []targetConfig `yaml:"targets"`
}

// Registry holds the resolved target list.
type Registry struct {
	config  Config
	targets []types.TargetMetadata
}

// NewRegistry resolves the target list. Resolution order: the YAML
// targets file if present, else the Makefile's USERTEST_APPS value, else
// the fixed default list. A malformed targets file is an error; a missing
// one is not.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	if cfg.TargetsFile == "" {
		cfg.TargetsFile = filepath.Join(cfg.WorkDir, "targets.yaml")
	}
	if cfg.MakefilePath == "" {
		cfg.MakefilePath = filepath.Join(cfg.WorkDir, "Makefile")
	}

	r := &Registry{config: cfg}
	if err := r.loadTargets(); err != nil {
		return nil, fmt.Errorf("failed to load targets: %w", err)
	}
	cfg.Log.Debug("Registry loaded", "len(targets)", len(r.targets))
	return r, nil
}

func (r *Registry) loadTargets() error {
	if targets, err := r.loadTargetsFile(); err != nil {
		return err
	} else if targets != nil {
		r.targets = targets
		return nil
	}

	if names := parseMakefileApps(r.config.MakefilePath); names != nil {
		r.targets = r.Resolve(names)
		return nil
	}

	r.targets = r.Resolve(DefaultTargets)
	return nil
}

// loadTargetsFile reads the YAML targets file. A missing file yields
// (nil, nil) so resolution falls through to the Makefile.
func (r *Registry) loadTargetsFile() ([]types.TargetMetadata, error) {
	data, err := os.ReadFile(r.config.TargetsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading targets file: %w", err)
	}

	var cfg targetsFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing targets file: %w", err)
	}

	targets := make([]types.TargetMetadata, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		if t.Name == "" {
			return nil, fmt.Errorf("targets file entry missing name")
		}
		timeout := r.config.DefaultTimeout
		if t.Timeout != nil {
			timeout = *t.Timeout
		}
		targets = append(targets, types.TargetMetadata{
			Name:    NormalizeName(t.Name),
			Path:    filepath.Join(r.config.WorkDir, NormalizeName(t.Name)),
			Timeout: timeout,
		})
	}
	return targets, nil
}

// parseMakefileApps extracts the USERTEST_APPS variable from a Makefile.
// Returns nil when the file or the variable is absent.
func parseMakefileApps(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	m := usertestAppsRe.FindSubmatch(data)
	if m == nil {
		return nil
	}
	fields := regexp.MustCompile(`\s+`).Split(string(m[1]), -1)
	var names []string
	for _, f := range fields {
		if f != "" {
			names = append(names, f)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return names
}

// Targets returns the resolved target list.
func (r *Registry) Targets() []types.TargetMetadata {
	return r.targets
}

// Resolve maps explicit target names to metadata, normalizing path-ish
// arguments like "./usertest_mpsc".
func (r *Registry) Resolve(names []string) []types.TargetMetadata {
	targets := make([]types.TargetMetadata, 0, len(names))
	for _, name := range names {
		name = NormalizeName(name)
		targets = append(targets, types.TargetMetadata{
			Name:    name,
			Path:    filepath.Join(r.config.WorkDir, name),
			Timeout: r.config.DefaultTimeout,
		})
	}
	return targets
}

// NormalizeName strips any leading path from a target argument, so
// "./usertest_mpsc" and "usertest_mpsc" select the same target.
func NormalizeName(arg string) string {
	if base := filepath.Base(arg); base != "." && base != string(filepath.Separator) {
		return base
	}
	return arg
}

// DiscoverExecutables probes the work directory for known executables and
// returns metadata for those present and executable.
func DiscoverExecutables(logger log.Logger, workDir string, names []string) []types.TargetMetadata {
	var found []types.TargetMetadata
	for _, name := range names {
		path := filepath.Join(workDir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.Mode().Perm()&0o111 == 0 {
			continue
		}
		logger.Info("Found executable", "target", name)
		found = append(found, types.TargetMetadata{Name: name, Path: path})
	}
	return found
}
