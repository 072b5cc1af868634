// Package lang defines the language catalog for the translation pipeline.
//
// A [Catalog] is an ordered, read-only table mapping human-readable language
// names to the codes understood by the translation model. The catalog is
// fixed at process start; insertion order is meaningful and defines the
// ordering presented to users. The first two entries are the default source
// and target selections.
package lang

// Catalog is an ordered name→code language table.
//
// The zero value is empty and useless; obtain one from [Default].
type Catalog struct {
	names []string
	codes map[string]string
	back  map[string]string
}

// entry pairs a language name with its model code.
type entry struct {
	name string
	code string
}

// defaultEntries lists every language the translation model accepts,
// in presentation order. English and Spanish lead as the default
// source/target pair.
var defaultEntries = []entry{
	{"English", "en"},
	{"Spanish", "es"},
	{"French", "fr"},
	{"German", "de"},
	{"Italian", "it"},
	{"Portuguese", "pt"},
	{"Dutch", "nl"},
	{"Russian", "ru"},
	{"Chinese", "zh"},
	{"Japanese", "ja"},
	{"Korean", "ko"},
	{"Arabic", "ar"},
	{"Hindi", "hi"},
	{"Bengali", "bn"},
	{"Tamil", "ta"},
	{"Telugu", "te"},
	{"Marathi", "mr"},
	{"Gujarati", "gu"},
	{"Urdu", "ur"},
	{"Turkish", "tr"},
	{"Polish", "pl"},
	{"Czech", "cs"},
	{"Hungarian", "hu"},
	{"Romanian", "ro"},
	{"Bulgarian", "bg"},
	{"Croatian", "hr"},
	{"Serbian", "sr"},
	{"Slovak", "sk"},
	{"Slovenian", "sl"},
	{"Estonian", "et"},
	{"Latvian", "lv"},
	{"Lithuanian", "lt"},
	{"Finnish", "fi"},
	{"Swedish", "sv"},
	{"Norwegian", "no"},
	{"Danish", "da"},
	{"Icelandic", "is"},
}

// Default returns the catalog of all supported languages.
// The returned catalog is shared; callers must not mutate it.
func Default() *Catalog {
	return defaultCatalog
}

var defaultCatalog = newCatalog(defaultEntries)

func newCatalog(entries []entry) *Catalog {
	c := &Catalog{
		names: make([]string, 0, len(entries)),
		codes: make(map[string]string, len(entries)),
		back:  make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		c.names = append(c.names, e.name)
		c.codes[e.name] = e.code
		if _, ok := c.back[e.code]; !ok {
			c.back[e.code] = e.name
		}
	}
	return c
}

// Code resolves a language name to its model code.
func (c *Catalog) Code(name string) (string, bool) {
	code, ok := c.codes[name]
	return code, ok
}

// Name resolves a model code back to its language name.
func (c *Catalog) Name(code string) (string, bool) {
	name, ok := c.back[code]
	return name, ok
}

// Contains reports whether the catalog knows the given language name.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.codes[name]
	return ok
}

// Names returns all language names in presentation order.
// The returned slice is a copy and may be modified by the caller.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of languages in the catalog.
func (c *Catalog) Len() int {
	return len(c.names)
}

// DefaultSource returns the default source language name (the first entry).
func (c *Catalog) DefaultSource() string {
	return c.names[0]
}

// DefaultTarget returns the default target language name (the second entry).
func (c *Catalog) DefaultTarget() string {
	return c.names[1]
}
