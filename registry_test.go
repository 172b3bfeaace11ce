package thegrid

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/macrodactyl/thegrid/model"
)

type stillAnimation struct {
	Base
	opts Options
}

func (a *stillAnimation) Update() Result {
	return Next(model.Blank(), Seconds(a.opts.Float("delay", 1)))
}

func stillConstructor(opts Options, ui *UIState) (Animation, errors.Error) {
	return &stillAnimation{opts: opts}, nil
}

func TestRegistryRegisterLookup(t *testing.T) {
	reg := NewRegistry(nil)

	if err := reg.Register("Still", stillConstructor, Options{"delay": 0.5}); err != nil {
		t.Fatal(err.Error())
	}
	if err := reg.Register("Still", stillConstructor, nil); err == nil {
		t.Fatal("duplicate registration was accepted")
	}
	if err := reg.Register("", stillConstructor, nil); err == nil {
		t.Fatal("empty name was accepted")
	}
	if err := reg.Register("Nothing", nil, nil); err == nil {
		t.Fatal("nil constructor was accepted")
	}

	entry, err := reg.Lookup("Still")
	if err != nil {
		t.Fatal(err.Error())
	}
	if entry.Defaults.Float("delay", 0) != 0.5 {
		t.Fatalf("unexpected defaults %v", entry.Defaults)
	}
	if _, err = reg.Lookup("Missing"); err == nil {
		t.Fatal("lookup of a missing animation succeeded")
	}
	if !reg.Has("Still") || reg.Has("Missing") {
		t.Fatal("Has disagrees with Lookup")
	}
}

func TestRegistryDefaultsAreCopied(t *testing.T) {
	reg := NewRegistry(nil)
	defaults := Options{"delay": 0.5}
	reg.Register("Still", stillConstructor, defaults)
	defaults["delay"] = 9.0

	entry, _ := reg.Lookup("Still")
	if entry.Defaults.Float("delay", 0) != 0.5 {
		t.Fatal("registry entry was mutated through the caller's map")
	}
}

func TestRegistryReload(t *testing.T) {
	defs := []Definition{
		{Name: "A", Constructor: stillConstructor},
		{Name: "B", Constructor: stillConstructor},
	}
	var failWith errors.Error
	source := func() ([]Definition, errors.Error) {
		return defs, failWith
	}

	reg := NewRegistry(source)
	if len(reg.Names()) != 0 {
		t.Fatal("registry should start empty")
	}
	if err := reg.Reload(); err != nil {
		t.Fatal(err.Error())
	}
	if names := reg.Names(); len(names) != 2 || names[0] != "A" || names[1] != "B" {
		t.Fatalf("unexpected names %v", names)
	}
	first := reg.Fingerprint()

	// Reloading unchanged definitions keeps the fingerprint
	reg.Reload()
	if reg.Fingerprint() != first {
		t.Fatal("fingerprint changed without changes")
	}

	// Failed and inconsistent reloads leave the table alone
	failWith = errors.New("catalog unreadable").With("stack", stack.Trace().TrimRuntime())
	if err := reg.Reload(); err == nil {
		t.Fatal("source failure was not reported")
	}
	failWith = nil
	defs = []Definition{{Name: "C", Constructor: stillConstructor}, {Name: "C", Constructor: stillConstructor}}
	if err := reg.Reload(); err == nil {
		t.Fatal("duplicate definitions were accepted")
	}
	if names := reg.Names(); len(names) != 2 {
		t.Fatalf("table changed after failed reloads %v", names)
	}

	defs = []Definition{{Name: "C", Constructor: stillConstructor, Defaults: Options{"delay": 2}}}
	if err := reg.Reload(); err != nil {
		t.Fatal(err.Error())
	}
	if reg.Has("A") || !reg.Has("C") {
		t.Fatal("reload did not replace the table")
	}
	if reg.Fingerprint() == first {
		t.Fatal("fingerprint did not change")
	}
}

func TestRegistryConcurrentReload(t *testing.T) {
	even := []Definition{{Name: "A", Constructor: stillConstructor}, {Name: "B", Constructor: stillConstructor}}
	odd := []Definition{{Name: "X", Constructor: stillConstructor}, {Name: "Y", Constructor: stillConstructor}}

	var mu sync.Mutex
	flip := false
	reg := NewRegistry(func() ([]Definition, errors.Error) {
		mu.Lock()
		defer mu.Unlock()
		flip = !flip
		if flip {
			return odd, nil
		}
		return even, nil
	})
	reg.Reload()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i != 200; i++ {
			reg.Reload()
		}
	}()

	for i := 0; i != 200; i++ {
		names := reg.Names()
		if len(names) != 2 {
			t.Fatalf("partial table observed %v", names)
		}
		if !(names[0] == "A" && names[1] == "B") && !(names[0] == "X" && names[1] == "Y") {
			t.Fatalf("mixed table observed %v", names)
		}
	}
	wg.Wait()
}

func TestCatalogDefinitions(t *testing.T) {
	kinds := []Kind{
		{Name: "Still", Constructor: stillConstructor, Defaults: Options{"delay": 1.0, "hue": 10}},
		{Name: "Other", Constructor: stillConstructor},
	}

	cat, err := NewCatalog(kinds, "")
	if err != nil {
		t.Fatal(err.Error())
	}
	defs, err := cat.Definitions()
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(defs) != 2 || defs[0].Name != "Other" || defs[1].Name != "Still" {
		t.Fatalf("unexpected definitions %v", defs)
	}

	dir, errGo := ioutil.TempDir("", "catalog")
	if errGo != nil {
		t.Fatal(errGo)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "catalog.yaml")

	body := `
animations:
  - name: Slow
    kind: Still
    options:
      delay: 4.5
  - name: Still
    options:
      hue: 20
`
	if errGo = ioutil.WriteFile(path, []byte(body), 0600); errGo != nil {
		t.Fatal(errGo)
	}

	cat, _ = NewCatalog(kinds, path)
	reg := NewRegistry(cat.Definitions)
	if err = reg.Reload(); err != nil {
		t.Fatal(err.Error())
	}
	if names := reg.Names(); len(names) != 3 {
		t.Fatalf("unexpected names %v", names)
	}
	slow, _ := reg.Lookup("Slow")
	if slow.Defaults.Float("delay", 0) != 4.5 || slow.Defaults.Int("hue", 0) != 10 {
		t.Fatalf("options not merged with the kind defaults %v", slow.Defaults)
	}
	still, _ := reg.Lookup("Still")
	if still.Defaults.Int("hue", 0) != 20 || still.Defaults.Float("delay", 0) != 1.0 {
		t.Fatalf("override not applied %v", still.Defaults)
	}

	// Edits to the file are seen by the next reload
	body = `
exclusive: true
animations:
  - name: Only
    kind: Other
`
	ioutil.WriteFile(path, []byte(body), 0600)
	if err = reg.Reload(); err != nil {
		t.Fatal(err.Error())
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "Only" {
		t.Fatalf("unexpected names after the edit %v", names)
	}

	for _, bad := range []string{
		"animations:\n  - kind: Still\n",
		"animations:\n  - name: X\n    kind: Unknown\n",
		"animations:\n  - name: X\n    kind: Still\n  - name: X\n    kind: Other\n",
		"animations: [",
	} {
		ioutil.WriteFile(path, []byte(bad), 0600)
		if err = reg.Reload(); err == nil {
			t.Fatalf("bad catalog accepted %q", bad)
		}
	}
	if names := reg.Names(); len(names) != 1 {
		t.Fatal("bad catalogs changed the registry")
	}

	if _, err = NewCatalog(append(kinds, kinds[0]), ""); err == nil {
		t.Fatal("duplicate kinds accepted")
	}
}

func TestOptions(t *testing.T) {
	opts := Options{
		"f":     1.5,
		"i":     3,
		"s":     "text",
		"b":     true,
		"fs":    "2.5",
		"bs":    "false",
		"other": []int{1},
	}
	if opts.Float("f", 0) != 1.5 || opts.Float("i", 0) != 3 || opts.Float("fs", 0) != 2.5 || opts.Float("s", 7) != 7 {
		t.Fatal("Float conversions")
	}
	if opts.Int("i", 0) != 3 || opts.Int("f", 0) != 1 || opts.Int("missing", 4) != 4 {
		t.Fatal("Int conversions")
	}
	if opts.String("s", "") != "text" || opts.String("i", "") != "3" || opts.String("missing", "x") != "x" {
		t.Fatal("String conversions")
	}
	if !opts.Bool("b", false) || opts.Bool("bs", true) || !opts.Bool("other", true) {
		t.Fatal("Bool conversions")
	}

	merged := opts.Merge(Options{"i": 4})
	if merged.Int("i", 0) != 4 || opts.Int("i", 0) != 3 {
		t.Fatal("Merge modified the original")
	}
}
