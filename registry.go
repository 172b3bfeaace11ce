package thegrid

// This file implements the table of animations that can be selected by name.
//
// The table is an immutable value that is swapped wholesale when it is
// rebuilt, lookups performed by the frame loop therefore see either the old
// or the new table but never a mixture of both

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cnf/structhash"
	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
)

type Entry struct {
	Name        string
	Constructor Constructor
	Defaults    Options
}

// Definition is a single animation as described by a Source
type Definition = Entry

// Source produces the complete set of known animation definitions, it is
// consulted every time the registry is reloaded
type Source func() (defs []Definition, err errors.Error)

type table struct {
	entries     map[string]Entry
	fingerprint string
}

type Registry struct {
	source  Source
	current atomic.Pointer[table]
	sync.Mutex
}

// NewRegistry creates an empty registry, the source may be nil in which case
// the registry is only populated using Register and Reload keeps the table
// as it is
func NewRegistry(source Source) (reg *Registry) {
	reg = &Registry{
		source: source,
	}
	reg.current.Store(newTable(map[string]Entry{}))
	return reg
}

func newTable(entries map[string]Entry) (tbl *table) {
	tbl = &table{entries: entries}
	tbl.fingerprint = fingerprint(entries)
	return tbl
}

type fingerprintEntry struct {
	Name     string
	Defaults string
}

type fingerprintTable struct {
	Entries []fingerprintEntry
}

func fingerprint(entries map[string]Entry) string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]fingerprintEntry, 0, len(names))
	for _, name := range names {
		items = append(items, fingerprintEntry{
			Name:     name,
			Defaults: describeOptions(entries[name].Defaults),
		})
	}
	hash, errGo := structhash.Hash(fingerprintTable{Entries: items}, 1)
	if errGo != nil {
		logger.Warn("registry fingerprint unavailable", "error", errGo.Error())
		return ""
	}
	return hash
}

func describeOptions(opts Options) string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	desc := ""
	for _, k := range keys {
		desc += fmt.Sprintf("%s=%v;", k, opts[k])
	}
	return desc
}

func validEntry(entry Entry) (err errors.Error) {
	if len(entry.Name) == 0 {
		return errors.New("animation name is empty").With("stack", stack.Trace().TrimRuntime())
	}
	if entry.Constructor == nil {
		return errors.New("animation has no constructor").With("name", entry.Name).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}

// Register adds a single animation, registering a name twice is a
// configuration error
func (reg *Registry) Register(name string, ctor Constructor, defaults Options) (err errors.Error) {
	entry := Entry{Name: name, Constructor: ctor, Defaults: defaults.Merge(nil)}
	if err = validEntry(entry); err != nil {
		return err
	}

	reg.Lock()
	defer reg.Unlock()

	old := reg.current.Load()
	if _, isPresent := old.entries[name]; isPresent {
		return errors.New("animation already registered").With("name", name).With("stack", stack.Trace().TrimRuntime())
	}

	entries := make(map[string]Entry, len(old.entries)+1)
	for k, v := range old.entries {
		entries[k] = v
	}
	entries[name] = entry

	reg.current.Store(newTable(entries))
	return nil
}

// Lookup retrieves the constructor and options for the named animation
func (reg *Registry) Lookup(name string) (entry Entry, err errors.Error) {
	entry, isPresent := reg.current.Load().entries[name]
	if !isPresent {
		return entry, errors.New("animation not found").With("name", name).With("stack", stack.Trace().TrimRuntime())
	}
	return entry, nil
}

func (reg *Registry) Has(name string) bool {
	_, isPresent := reg.current.Load().entries[name]
	return isPresent
}

// Reload rebuilds the entire table from the source.  When the source fails,
// or describes the same name twice, the existing table is left in place
func (reg *Registry) Reload() (err errors.Error) {
	if reg.source == nil {
		return nil
	}

	reg.Lock()
	defer reg.Unlock()

	defs, err := reg.source()
	if err != nil {
		return err
	}

	entries := make(map[string]Entry, len(defs))
	for _, def := range defs {
		if err = validEntry(def); err != nil {
			return err
		}
		if _, isPresent := entries[def.Name]; isPresent {
			return errors.New("animation defined twice").With("name", def.Name).With("stack", stack.Trace().TrimRuntime())
		}
		def.Defaults = def.Defaults.Merge(nil)
		entries[def.Name] = def
	}

	tbl := newTable(entries)
	if old := reg.current.Load(); old.fingerprint == tbl.fingerprint && len(tbl.fingerprint) != 0 {
		logger.Info("animations reloaded, no changes", "count", len(entries), "fingerprint", tbl.fingerprint)
	} else {
		logger.Info("animations reloaded", "count", len(entries), "fingerprint", tbl.fingerprint)
	}
	reg.current.Store(tbl)
	return nil
}

// Names returns the sorted names of the registered animations
func (reg *Registry) Names() (names []string) {
	entries := reg.current.Load().entries
	names = make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (reg *Registry) Fingerprint() string {
	return reg.current.Load().fingerprint
}
