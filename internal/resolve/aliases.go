package resolve

import "sync"

// staticAliases seeds the alias dictionary with well-known spelling
// variants technology/entity mentions commonly take, consulted before
// the dynamic table the ontology updater (internal/analyze/ontology.go)
// appends to at runtime (spec.md section 4.6).
var staticAliases = map[string]string{
	"postgres":     "postgresql",
	"pg":           "postgresql",
	"js":           "javascript",
	"ts":           "typescript",
	"k8s":          "kubernetes",
	"mongo":        "mongodb",
	"py":           "python",
	"golang":       "go",
	"psql":         "postgresql",
	"redis cache":  "redis",
	"gh actions":   "github actions",
	"ghcr":         "github container registry",
}

// MapDictionary is an in-memory AliasDictionary: a fixed static table
// plus a mutable dynamic table appended to by the ontology updater,
// guarded by one lock since both tables are read far more often than
// written.
type MapDictionary struct {
	mu      sync.RWMutex
	static  map[string]string
	dynamic map[string]string
}

func NewMapDictionary() *MapDictionary {
	return &MapDictionary{static: staticAliases, dynamic: make(map[string]string)}
}

func (d *MapDictionary) Lookup(mention string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if canonical, ok := d.static[mention]; ok {
		return canonical, true
	}
	if canonical, ok := d.dynamic[mention]; ok {
		return canonical, true
	}
	return "", false
}

// Add appends a new alias -> canonical mapping to the dynamic table,
// never overwriting an existing entry (spec.md section 4.6's ontology
// updater invariant: "idempotent, and never overwrite existing
// mappings").
func (d *MapDictionary) Add(alias, canonical string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.static[alias]; ok {
		return
	}
	if _, ok := d.dynamic[alias]; ok {
		return
	}
	d.dynamic[alias] = canonical
}
