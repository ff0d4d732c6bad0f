package upgrade

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"

	"bsdata-go/internal/datafile"
)

//go:embed transforms/*.toml
var embeddedTransforms embed.FS

// Checkpoint is one step of an upgrade chain: a transform that produces
// documents at Version.
type Checkpoint struct {
	Version   string
	Transform *Transform
}

// Registry holds the upgrade chain for each data kind, ordered by ascending
// checkpoint version. It is immutable once loaded and safe for concurrent use.
type Registry struct {
	chains map[datafile.Kind][]Checkpoint
}

// transformFile is the on-disk form of a transform definition.
type transformFile struct {
	Kind       string            `toml:"kind"`
	Version    string            `toml:"version"`
	Elements   map[string]string `toml:"elements"`
	Attributes []AttributeRename `toml:"attributes"`
}

var defaultRegistry = sync.OnceValues(func() (*Registry, error) {
	sub, err := fs.Sub(embeddedTransforms, "transforms")
	if err != nil {
		return nil, fmt.Errorf("opening embedded transforms: %w", err)
	}
	return LoadRegistry(sub)
})

// DefaultRegistry returns the registry built from the embedded transform
// definitions. It is loaded once per process.
func DefaultRegistry() (*Registry, error) {
	return defaultRegistry()
}

// LoadRegistry parses every *.toml transform definition at the root of fsys.
func LoadRegistry(fsys fs.FS) (*Registry, error) {
	names, err := fs.Glob(fsys, "*.toml")
	if err != nil {
		return nil, fmt.Errorf("listing transforms: %w", err)
	}

	r := &Registry{chains: make(map[datafile.Kind][]Checkpoint)}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading transform %s: %w", name, err)
		}
		t, err := parseTransform(data)
		if err != nil {
			return nil, fmt.Errorf("parsing transform %s: %w", path.Base(name), err)
		}
		r.chains[t.Kind] = append(r.chains[t.Kind], Checkpoint{Version: t.Version, Transform: t})
	}

	for kind, chain := range r.chains {
		slices.SortFunc(chain, func(a, b Checkpoint) int { return CompareVersions(a.Version, b.Version) })
		for i := 1; i < len(chain); i++ {
			if CompareVersions(chain[i-1].Version, chain[i].Version) == 0 {
				return nil, fmt.Errorf("duplicate %s checkpoint %s", kind, chain[i].Version)
			}
		}
	}
	return r, nil
}

func parseTransform(data []byte) (*Transform, error) {
	var tf transformFile
	if err := toml.Unmarshal(data, &tf); err != nil {
		return nil, err
	}

	var kind datafile.Kind
	switch tf.Kind {
	case "gamesystem":
		kind = datafile.KindGameSystem
	case "catalogue":
		kind = datafile.KindCatalogue
	default:
		return nil, fmt.Errorf("unsupported kind %q", tf.Kind)
	}

	if tf.Version == "" {
		return nil, fmt.Errorf("missing version")
	}
	if CompareVersions(tf.Version, MinVersion) <= 0 || CompareVersions(tf.Version, CurrentVersion) > 0 {
		return nil, fmt.Errorf("version %s outside (%s, %s]", tf.Version, MinVersion, CurrentVersion)
	}
	for _, a := range tf.Attributes {
		if a.From == "" || a.To == "" {
			return nil, fmt.Errorf("attribute rename needs both from and to")
		}
	}

	return &Transform{
		Kind:       kind,
		Version:    tf.Version,
		Elements:   tf.Elements,
		Attributes: tf.Attributes,
	}, nil
}

// Chain returns the checkpoints for kind in ascending version order. Kinds
// without transforms, such as rosters, have an empty chain.
func (r *Registry) Chain(kind datafile.Kind) []Checkpoint {
	return slices.Clone(r.chains[kind])
}
