package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"github.com/devsignals/pipeline/app/sources"
)

// mappingFunc extracts the canonical fields from one source's payload shape.
// Detection, ecosystem inference and hashing are applied afterwards, so the
// mappings stay small and independently testable.
type mappingFunc func(raw sources.RawItem) (*Item, error)

// Normalizer maps raw, source-shaped payloads into canonical items. Dispatch
// is by source identity over a fixed table; sources without an entry are an
// explicit, logged no-op path.
type Normalizer struct {
	registry *sources.Registry
	mappings map[string]mappingFunc
	fold     cases.Caser
}

func New(registry *sources.Registry) *Normalizer {
	n := &Normalizer{
		registry: registry,
		fold:     cases.Fold(),
	}
	n.mappings = map[string]mappingFunc{
		"hackernews":      mapHackerNews,
		"github-trending": mapGitHubTrending,
		"producthunt":     mapProductHunt,
		"devto":           mapDevTo,
		"lobsters":        mapLobsters,
		"go-blog":         mapRSS,
		"rust-blog":       mapRSS,
	}
	return n
}

// Normalize maps one raw item to its canonical form. A missing mapping or a
// failing one yields nil with a logged warning; normalization failures are
// non-fatal and simply drop the item.
func (n *Normalizer) Normalize(raw sources.RawItem) *Item {
	mapping, ok := n.mappings[raw.SourceName]
	if !ok {
		slog.Warn("No normalizer registered for source, dropping item", "source", raw.SourceName)
		return nil
	}

	item, err := mapping(raw)
	if err != nil {
		slog.Warn("Normalization failed, dropping item", "source", raw.SourceName, "error", err)
		return nil
	}

	item.SourceName = raw.SourceName
	item.FetchedAt = raw.FetchedAt
	if src := n.registry.Get(raw.SourceName); src != nil {
		item.Tier = src.Tier()
		item.Reliability = src.Reliability()
	}

	text := item.Title + " " + item.Description
	item.Categories = DetectCategories(text)
	item.Technologies = mergeTags(item.Technologies, DetectTechnologies(text))
	item.Ecosystems = InferEcosystems(item.Technologies)
	item.ContentHash = n.ContentHash(item.Title, item.URL)

	return item
}

// NormalizeBatch normalizes a list of raw items, silently discarding the
// ones that fail, preserving order.
func (n *Normalizer) NormalizeBatch(raws []sources.RawItem) []*Item {
	items := make([]*Item, 0, len(raws))
	for _, raw := range raws {
		if item := n.Normalize(raw); item != nil {
			items = append(items, item)
		}
	}
	return items
}

// ContentHash is the primary dedup key: a sha256 digest of the case-folded,
// whitespace-normalized title and URL. It is stable across repeated
// normalization of the same logical item.
func (n *Normalizer) ContentHash(title, url string) string {
	content := n.canonicalize(title) + "|" + n.canonicalize(url)
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

func (n *Normalizer) canonicalize(s string) string {
	folded := n.fold.String(strings.TrimSpace(s))
	return strings.Join(strings.Fields(folded), " ")
}

// mergeTags combines pre-seeded tags from the payload with detected ones,
// dropping duplicates while keeping first-seen order.
func mergeTags(groups ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, group := range groups {
		for _, tag := range group {
			key := strings.ToLower(strings.TrimSpace(tag))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, key)
		}
	}
	return merged
}
