package thegrid

// This file contains the catalog of animation kinds known to this binary and
// the optional YAML file that names, configures and aliases them.
//
// The YAML file is read again on every registry reload so edits to the
// animation options take effect without restarting the process.  An example
// catalog file is,
//
//	exclusive: false
//	animations:
//	  - name: Kirk
//	    kind: Sweep
//	    options:
//	      hue: 0
//	      step: 0.1

import (
	"io/ioutil"
	"sort"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"gopkg.in/yaml.v2"
)

// Kind is an animation implementation built into the binary along with the
// options it uses when nothing overrides them
type Kind struct {
	Name        string
	Constructor Constructor
	Defaults    Options
}

type catalogEntry struct {
	Name    string  `yaml:"name"`
	Kind    string  `yaml:"kind"`
	Options Options `yaml:"options"`
}

type catalogFile struct {
	Exclusive  bool           `yaml:"exclusive"`
	Animations []catalogEntry `yaml:"animations"`
}

type Catalog struct {
	kinds map[string]Kind
	path  string
}

// NewCatalog creates a catalog from the built in kinds and an optional YAML
// catalog file path, an empty path registers every kind under its own name
func NewCatalog(kinds []Kind, path string) (cat *Catalog, err errors.Error) {
	cat = &Catalog{
		kinds: make(map[string]Kind, len(kinds)),
		path:  path,
	}
	for _, kind := range kinds {
		if _, isPresent := cat.kinds[kind.Name]; isPresent {
			return nil, errors.New("animation kind defined twice").With("kind", kind.Name).With("stack", stack.Trace().TrimRuntime())
		}
		cat.kinds[kind.Name] = kind
	}
	return cat, nil
}

func (cat *Catalog) load() (file *catalogFile, err errors.Error) {
	file = &catalogFile{}
	if len(cat.path) == 0 {
		return file, nil
	}

	body, errGo := ioutil.ReadFile(cat.path)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("file", cat.path).With("stack", stack.Trace().TrimRuntime())
	}
	if errGo = yaml.Unmarshal(body, file); errGo != nil {
		return nil, errors.Wrap(errGo).With("file", cat.path).With("stack", stack.Trace().TrimRuntime())
	}
	return file, nil
}

// Definitions is the registry Source, the definitions are produced in name
// order
func (cat *Catalog) Definitions() (defs []Definition, err errors.Error) {
	file, err := cat.load()
	if err != nil {
		return nil, err
	}

	named := map[string]Definition{}
	for i, entry := range file.Animations {
		if len(entry.Name) == 0 {
			return nil, errors.New("catalog entry has no name").With("file", cat.path).With("index", i).With("stack", stack.Trace().TrimRuntime())
		}
		kindName := entry.Kind
		if len(kindName) == 0 {
			kindName = entry.Name
		}
		kind, isPresent := cat.kinds[kindName]
		if !isPresent {
			return nil, errors.New("catalog entry uses an unknown kind").With("file", cat.path).With("name", entry.Name).With("kind", kindName).With("stack", stack.Trace().TrimRuntime())
		}
		if _, isPresent := named[entry.Name]; isPresent {
			return nil, errors.New("catalog entry defined twice").With("file", cat.path).With("name", entry.Name).With("stack", stack.Trace().TrimRuntime())
		}
		named[entry.Name] = Definition{
			Name:        entry.Name,
			Constructor: kind.Constructor,
			Defaults:    kind.Defaults.Merge(entry.Options),
		}
	}

	if !file.Exclusive {
		for _, kind := range cat.kinds {
			if _, isPresent := named[kind.Name]; isPresent {
				continue
			}
			named[kind.Name] = Definition{
				Name:        kind.Name,
				Constructor: kind.Constructor,
				Defaults:    kind.Defaults.Merge(nil),
			}
		}
	}

	defs = make([]Definition, 0, len(named))
	for _, def := range named {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	return defs, nil
}
