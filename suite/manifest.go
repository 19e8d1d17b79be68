package suite

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file the loader looks for in a suite directory.
const ManifestName = "javelin.toml"

// Manifest is a javelin.toml suite configuration.
type Manifest struct {
	Suite SuiteConfig `toml:"suite"`
	Run   RunConfig   `toml:"run"`
	Fuzz  FuzzConfig  `toml:"fuzz"`

	// Dir is the directory containing the manifest (set at load time);
	// relative paths in the manifest resolve against it.
	Dir string `toml:"-"`
}

// SuiteConfig names the suite and locates its inputs.
type SuiteConfig struct {
	Name     string   `toml:"name"`
	Bytecode string   `toml:"bytecode"`
	Cases    []string `toml:"cases"`
}

// RunConfig carries per-run defaults.
type RunConfig struct {
	MaxSteps int `toml:"max-steps"`
}

// FuzzConfig carries fuzzing defaults.
type FuzzConfig struct {
	Iters      int   `toml:"iters"`
	Seed       int64 `toml:"seed"`
	CorpusSize int   `toml:"corpus-size"`
}

// DefaultManifest returns the built-in configuration used when no
// javelin.toml exists: bytecode under "decompiled", cases in "cases.txt",
// and the standard budgets.
func DefaultManifest(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Suite.Bytecode == "" {
		m.Suite.Bytecode = "decompiled"
	}
	if len(m.Suite.Cases) == 0 {
		m.Suite.Cases = []string{"cases.txt"}
	}
	if m.Run.MaxSteps == 0 {
		m.Run.MaxSteps = 1000
	}
	if m.Fuzz.Iters == 0 {
		m.Fuzz.Iters = 1000
	}
	if m.Fuzz.Seed == 0 {
		m.Fuzz.Seed = 1337
	}
	if m.Fuzz.CorpusSize == 0 {
		m.Fuzz.CorpusSize = 128
	}
}

// LoadManifest parses a manifest file. Unknown keys are errors so a typo
// in a budget name cannot silently fall back to a default.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undec[0].String())
	}

	m.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	m.applyDefaults()
	return &m, nil
}

// BytecodeDir returns the absolute path of the decoded class directory.
func (m *Manifest) BytecodeDir() string {
	return m.resolve(m.Suite.Bytecode)
}

// CasePaths returns the absolute paths of the configured case files.
func (m *Manifest) CasePaths() []string {
	out := make([]string, len(m.Suite.Cases))
	for i, p := range m.Suite.Cases {
		out[i] = m.resolve(p)
	}
	return out
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
