// Package suite loads a benchmark suite — decoded class files plus their
// case annotations — into one immutable Program and case registry, from a
// manifest, a bare directory, or a packed image.
package suite

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tliron/commonlog"

	"javelin/bytecode"
	"javelin/cases"
)

var log = commonlog.GetLogger("javelin.suite")

// Suite is a loaded benchmark suite, shared read-only between runs.
type Suite struct {
	Manifest *Manifest
	Program  *bytecode.Program
	Cases    *Registry
}

// Load opens a suite from a path: a javelin.toml manifest, a directory
// (containing a javelin.toml or laid out with the default names), or a
// packed image file.
func Load(path string) (*Suite, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("suite %s: %w", path, err)
	}

	if fi.IsDir() {
		mpath := filepath.Join(path, ManifestName)
		if _, err := os.Stat(mpath); err == nil {
			m, err := LoadManifest(mpath)
			if err != nil {
				return nil, err
			}
			return fromManifest(m, true)
		}
		return fromManifest(DefaultManifest(path), false)
	}

	if strings.HasSuffix(path, ".toml") {
		m, err := LoadManifest(path)
		if err != nil {
			return nil, err
		}
		return fromManifest(m, true)
	}
	return ReadImage(path)
}

// fromManifest loads the bytecode dir and case files a manifest names.
// In non-strict mode (defaulted layout, no manifest on disk) a missing
// case file just leaves the registry empty.
func fromManifest(m *Manifest, strict bool) (*Suite, error) {
	prog, err := LoadProgram(m.BytecodeDir())
	if err != nil {
		return nil, err
	}

	reg := NewRegistry(nil)
	for _, path := range m.CasePaths() {
		f, err := os.Open(path)
		if err != nil {
			if !strict && os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("cases %s: %w", path, err)
		}
		cs, err := cases.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("cases %s: %w", path, err)
		}
		for _, c := range cs {
			reg.Add(c)
		}
	}

	log.Infof("loaded suite %q: %d methods, %d cases",
		m.Suite.Name, len(prog.Methods()), reg.Len())
	return &Suite{Manifest: m, Program: prog, Cases: reg}, nil
}

// LoadProgram decodes every *.json class file under dir into one Program.
func LoadProgram(dir string) (*bytecode.Program, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bytecode dir %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("bytecode dir %s: no class files", dir)
	}
	sort.Strings(paths)

	var methods []*bytecode.Method
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		ms, err := bytecode.DecodeClass(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		log.Debugf("decoded %s: %d methods", path, len(ms))
		methods = append(methods, ms...)
	}
	return bytecode.NewProgram(methods...)
}

// Method resolves a method ID against the suite's program.
func (s *Suite) Method(id bytecode.MethodID) (*bytecode.Method, error) {
	m, ok := s.Program.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("method %s is not in the suite", id)
	}
	return m, nil
}
