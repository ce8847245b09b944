package dedup

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"

	"github.com/devsignals/pipeline/app/normalizer"
)

// NearDuplicateThreshold is the similarity score above which two canonical
// items are treated as observations of the same subject.
const NearDuplicateThreshold = 0.6

const hostMatchBonus = 0.3

var fold = cases.Fold()

var stopTokens = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "for": true, "to": true, "in": true, "on": true,
	"with": true, "is": true,
}

// Similarity scores two items by overlap of their normalized title tokens,
// with a bonus when both URLs resolve to the same host. The score is in
// [0, 1]; exact-hash duplicates trivially score 1.
func Similarity(a, b *normalizer.Item) float64 {
	ta := titleTokens(a.Title)
	tb := titleTokens(b.Title)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	union := len(tb)
	for token := range ta {
		if tb[token] {
			intersection++
		} else {
			union++
		}
	}
	jaccard := float64(intersection) / float64(union)

	ha, hb := urlHost(a.URL), urlHost(b.URL)
	if ha != "" && ha == hb {
		return jaccard*(1-hostMatchBonus) + hostMatchBonus
	}
	return jaccard
}

func titleTokens(title string) map[string]bool {
	folded := fold.String(title)
	tokens := strings.FieldsFunc(folded, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	set := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		if len(token) < 2 || stopTokens[token] {
			continue
		}
		set[token] = true
	}
	return set
}

func urlHost(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
