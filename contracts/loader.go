package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Loader loads compiled contract artifacts by contract name.
type Loader interface {
	Load(name string) (*Artifact, error)
}

// BuildInfoLoader is a Loader that can also provide the compiler input of a contract.
type BuildInfoLoader interface {
	Loader
	BuildInfo(name string) (*BuildInfo, error)
}

// BuildInfo is the compiler run a contract was produced by.
type BuildInfo struct {
	SolcVersion     string          `json:"solcVersion"`
	SolcLongVersion string          `json:"solcLongVersion"`
	Input           json.RawMessage `json:"input"`
}

// CompilerVersion returns the compiler version in the "v0.8.22+commit.4fc1097e" form.
func (b *BuildInfo) CompilerVersion() string {
	v := b.SolcLongVersion
	if v == "" {
		v = b.SolcVersion
	}
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}

	return "v" + v
}

// DirLoader loads artifacts from a Hardhat artifacts or Foundry out directory.
type DirLoader struct {
	dir string

	once  sync.Once
	paths map[string]string
	err   error
}

var _ BuildInfoLoader = (*DirLoader)(nil)

// NewDirLoader creates a loader over the artifacts directory dir.
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{dir: dir}
}

// index walks the directory once and records the path of every artifact by contract name.
// Hardhat debug files and build-info files are skipped.
func (l *DirLoader) index() error {
	l.once.Do(func() {
		l.paths = map[string]string{}
		l.err = filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "build-info" {
					return filepath.SkipDir
				}

				return nil
			}

			base := d.Name()
			if filepath.Ext(base) != ".json" || strings.HasSuffix(base, ".dbg.json") {
				return nil
			}

			name := strings.TrimSuffix(base, ".json")
			if _, ok := l.paths[name]; !ok {
				l.paths[name] = path
			}

			return nil
		})
		if l.err != nil {
			l.err = fmt.Errorf("failed to index artifacts in %s: %w", l.dir, l.err)
		}
	})

	return l.err
}

// Load returns the artifact of the named contract.
func (l *DirLoader) Load(name string) (*Artifact, error) {
	if err := l.index(); err != nil {
		return nil, err
	}

	path, ok := l.paths[name]
	if !ok {
		return nil, fmt.Errorf("%s in %s: %w", name, l.dir, ErrArtifactNotFound)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}

	return Parse(name, data)
}

// BuildInfo returns the compiler run of the named contract. It follows the buildInfo reference
// of the Hardhat debug file that sits next to the artifact.
func (l *DirLoader) BuildInfo(name string) (*BuildInfo, error) {
	if err := l.index(); err != nil {
		return nil, err
	}

	path, ok := l.paths[name]
	if !ok {
		return nil, fmt.Errorf("%s in %s: %w", name, l.dir, ErrArtifactNotFound)
	}

	dbgPath := strings.TrimSuffix(path, ".json") + ".dbg.json"
	data, err := os.ReadFile(dbgPath)
	if err != nil {
		return nil, fmt.Errorf("no build info for %s: %w", name, err)
	}

	var dbg struct {
		BuildInfo string `json:"buildInfo"`
	}
	if err = json.Unmarshal(data, &dbg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", dbgPath, err)
	}
	if dbg.BuildInfo == "" {
		return nil, fmt.Errorf("%s does not reference a build info file", dbgPath)
	}

	biPath := filepath.Join(filepath.Dir(dbgPath), filepath.FromSlash(dbg.BuildInfo))
	data, err = os.ReadFile(biPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read build info for %s: %w", name, err)
	}

	var bi BuildInfo
	if err = json.Unmarshal(data, &bi); err != nil {
		return nil, fmt.Errorf("failed to decode build info %s: %w", biPath, err)
	}
	if len(bi.Input) == 0 {
		return nil, errors.New("build info has no compiler input")
	}

	return &bi, nil
}

// MemoryLoader serves artifacts held in memory, keyed by contract name.
type MemoryLoader map[string]*Artifact

var _ Loader = MemoryLoader{}

// Load returns the artifact of the named contract.
func (m MemoryLoader) Load(name string) (*Artifact, error) {
	a, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrArtifactNotFound)
	}

	return a, nil
}
