// Package catalog holds the versioned stage vocabulary shared by stage
// resolution and outcome classification.
package catalog

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Separator splits a stage code into pipeline prefix and local code.
const Separator = ":"

//go:embed default.yaml
var defaultYAML []byte

// File is the on-disk shape of a catalog artifact.
type File struct {
	Version string            `yaml:"version"`
	Stages  map[string]string `yaml:"stages"`
	Success []string          `yaml:"success"`
	Failure []string          `yaml:"failure"`
}

// Catalog is a validated, normalized stage catalog. It is immutable after
// construction and safe for concurrent use.
type Catalog struct {
	version   string
	stages    map[string]string
	success   map[string]struct{}
	failure   map[string]struct{}
	conflicts []Conflict
}

// Conflict is a local code that maps to different canonical stages
// depending on the pipeline prefix.
type Conflict struct {
	LocalCode string            `json:"local_code"`
	ByPrefix  map[string]string `json:"by_prefix"`
}

// Entry is one row of the canonical table.
type Entry struct {
	Code      string `json:"code"`
	Canonical string `json:"canonical"`
}

// Default returns the embedded catalog. It panics if the embedded artifact
// is invalid, which the package tests rule out.
func Default() *Catalog {
	c, err := FromYAML(defaultYAML)
	if err != nil {
		panic(eris.Wrap(err, "catalog: embedded default"))
	}
	return c
}

// Load reads a catalog from path, or returns the embedded default when path
// is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return FromYAML(defaultYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	return FromYAML(data)
}

// FromYAML parses and validates a catalog from raw YAML bytes.
func FromYAML(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "catalog: invalid yaml")
	}
	return New(f)
}

// New normalizes and validates f.
func New(f File) (*Catalog, error) {
	c := &Catalog{
		version: Normalize(f.Version),
		stages:  make(map[string]string, len(f.Stages)),
		success: make(map[string]struct{}, len(f.Success)),
		failure: make(map[string]struct{}, len(f.Failure)),
	}
	if c.version == "" {
		return nil, eris.New("catalog: version is required")
	}
	if len(f.Stages) == 0 {
		return nil, eris.New("catalog: stages table is empty")
	}

	// Keys that normalize to the same code are a load error, not a
	// catalog_conflict warning: the artifact itself is ambiguous. Raw keys are
	// visited in sorted order so the error names them deterministically.
	rawKeys := make([]string, 0, len(f.Stages))
	for k := range f.Stages {
		rawKeys = append(rawKeys, k)
	}
	sort.Strings(rawKeys)

	canonical := make(map[string]struct{})
	rawFor := make(map[string]string, len(rawKeys))
	for _, raw := range rawKeys {
		code, name := Normalize(raw), Normalize(f.Stages[raw])
		if code == "" {
			return nil, eris.New("catalog: empty stage code")
		}
		if name == "" {
			return nil, eris.Errorf("catalog: stage code %s has empty canonical name", code)
		}
		if prev, ok := c.stages[code]; ok && prev != name {
			return nil, eris.Errorf("catalog: stage code %s maps to both %q (key %q) and %q (key %q)",
				code, prev, rawFor[code], name, raw)
		}
		c.stages[code] = name
		rawFor[code] = raw
		canonical[name] = struct{}{}
	}

	for _, name := range f.Success {
		name = Normalize(name)
		if _, ok := canonical[name]; !ok {
			return nil, eris.Errorf("catalog: success stage %q is not a canonical stage", name)
		}
		c.success[name] = struct{}{}
	}
	for _, name := range f.Failure {
		name = Normalize(name)
		if _, ok := canonical[name]; !ok {
			return nil, eris.Errorf("catalog: failure stage %q is not a canonical stage", name)
		}
		if _, ok := c.success[name]; ok {
			return nil, eris.Errorf("catalog: stage %q is in both success and failure sets", name)
		}
		c.failure[name] = struct{}{}
	}

	c.conflicts = findConflicts(c.stages)
	return c, nil
}

// Normalize trims s and converts it to Unicode NFC so that composed and
// decomposed accents (U+00C3 vs "A" + U+0303) compare equal.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// SplitCode splits a stage code at the first separator. ok is false when
// the code has no pipeline prefix.
func SplitCode(code string) (prefix, local string, ok bool) {
	prefix, local, ok = strings.Cut(code, Separator)
	if !ok {
		return "", code, false
	}
	return prefix, local, true
}

func findConflicts(stages map[string]string) []Conflict {
	byLocal := make(map[string]map[string]string)
	for code, name := range stages {
		prefix, local, ok := SplitCode(code)
		if !ok {
			continue
		}
		if byLocal[local] == nil {
			byLocal[local] = make(map[string]string)
		}
		byLocal[local][prefix] = name
	}

	var out []Conflict
	for local, prefixes := range byLocal {
		distinct := make(map[string]struct{})
		for _, name := range prefixes {
			distinct[name] = struct{}{}
		}
		if len(distinct) > 1 {
			out = append(out, Conflict{LocalCode: local, ByPrefix: prefixes})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocalCode < out[j].LocalCode })
	return out
}

// Version returns the catalog version string.
func (c *Catalog) Version() string {
	return c.version
}

// Lookup returns the canonical stage for an exact table key.
func (c *Catalog) Lookup(code string) (string, bool) {
	name, ok := c.stages[code]
	return name, ok
}

// IsSuccess reports whether name is in the closed SUCCESS set.
func (c *Catalog) IsSuccess(name string) bool {
	_, ok := c.success[name]
	return ok
}

// IsFailure reports whether name is in the closed FAILURE set.
func (c *Catalog) IsFailure(name string) bool {
	_, ok := c.failure[name]
	return ok
}

// Conflicts returns local codes whose meaning differs across pipelines,
// ordered by local code.
func (c *Catalog) Conflicts() []Conflict {
	return c.conflicts
}

// IsConflicting reports whether local appears in Conflicts.
func (c *Catalog) IsConflicting(local string) bool {
	i := sort.Search(len(c.conflicts), func(i int) bool { return c.conflicts[i].LocalCode >= local })
	return i < len(c.conflicts) && c.conflicts[i].LocalCode == local
}

// Entries returns the canonical table sorted by code.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.stages))
	for code, name := range c.stages {
		out = append(out, Entry{Code: code, Canonical: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// CanonicalStages returns the distinct canonical names, sorted.
func (c *Catalog) CanonicalStages() []string {
	seen := make(map[string]struct{})
	for _, name := range c.stages {
		seen[name] = struct{}{}
	}
	return sortedKeys(seen)
}

// SuccessStages returns the SUCCESS set, sorted.
func (c *Catalog) SuccessStages() []string {
	return sortedKeys(c.success)
}

// FailureStages returns the FAILURE set, sorted.
func (c *Catalog) FailureStages() []string {
	return sortedKeys(c.failure)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
