package normalizer

import "strings"

// The taxonomy is a closed, auditable rule table rather than a learned
// classifier: determinism and explainability matter more than recall here.

var categoryKeywords = map[string][]string{
	"frontend": {
		"frontend", "front-end", "react", "vue", "svelte", "angular", "css",
		"tailwind", "ui component", "web component", "browser", "dom",
	},
	"backend": {
		"backend", "back-end", "api", "server", "microservice", "grpc",
		"rest", "graphql", "queue", "worker",
	},
	"database": {
		"database", "sql", "postgres", "postgresql", "mysql", "sqlite",
		"redis", "mongodb", "query", "index", "migration", "replication",
		"sharding",
	},
	"auth": {
		"auth", "oauth", "sso", "login", "jwt", "session", "identity",
		"passkey", "password",
	},
	"devops": {
		"devops", "kubernetes", "docker", "container", "terraform", "ci/cd",
		"deploy", "infrastructure", "observability", "monitoring", "cloud",
	},
	"ai": {
		"ai", "llm", "machine learning", "deep learning", "neural", "gpt",
		"model", "inference", "training", "embedding", "agent", "rag",
	},
	"testing": {
		"testing", "test suite", "unit test", "integration test", "e2e",
		"coverage", "mock", "fuzzing", "benchmark",
	},
	"tooling": {
		"cli", "compiler", "linter", "formatter", "editor", "ide",
		"debugger", "build system", "package manager", "tooling",
	},
	"security": {
		"security", "vulnerability", "cve", "exploit", "encryption", "tls",
		"xss", "csrf", "injection", "zero-day", "supply chain",
	},
	"performance": {
		"performance", "latency", "throughput", "optimization", "profiling",
		"benchmark", "cache", "memory usage", "speedup",
	},
}

// categoryOrder keeps detection output deterministic.
var categoryOrder = []string{
	"frontend", "backend", "database", "auth", "devops",
	"ai", "testing", "tooling", "security", "performance",
}

// technologyVocabulary is matched by substring against the item text.
var technologyVocabulary = []string{
	"react", "vue", "svelte", "angular", "next.js", "tailwind",
	"typescript", "javascript", "node.js", "deno", "bun",
	"python", "django", "flask", "fastapi", "pytorch", "tensorflow",
	"go", "golang", "rust", "zig", "java", "kotlin", "swift",
	"ruby", "rails", "php", "laravel", "elixir", "phoenix",
	"postgres", "postgresql", "mysql", "sqlite", "redis", "mongodb",
	"kafka", "rabbitmq", "kubernetes", "docker", "terraform",
	"graphql", "grpc", "webassembly", "wasm",
}

// ecosystemsByTechnology maps a detected technology tag to the package
// ecosystems it implies. A technology can imply more than one ecosystem
// (e.g. typescript is published to npm).
var ecosystemsByTechnology = map[string][]string{
	"react":      {"npm"},
	"vue":        {"npm"},
	"svelte":     {"npm"},
	"angular":    {"npm"},
	"next.js":    {"npm"},
	"tailwind":   {"npm"},
	"typescript": {"npm"},
	"javascript": {"npm"},
	"node.js":    {"npm"},
	"deno":       {"npm", "jsr"},
	"bun":        {"npm"},
	"python":     {"pypi"},
	"django":     {"pypi"},
	"flask":      {"pypi"},
	"fastapi":    {"pypi"},
	"pytorch":    {"pypi"},
	"tensorflow": {"pypi"},
	"go":         {"go"},
	"golang":     {"go"},
	"rust":       {"crates"},
	"java":       {"maven"},
	"kotlin":     {"maven"},
	"swift":      {"swiftpm"},
	"ruby":       {"rubygems"},
	"rails":      {"rubygems"},
	"php":        {"packagist"},
	"laravel":    {"packagist"},
	"elixir":     {"hex"},
	"phoenix":    {"hex"},
}

// DetectCategories tests the text against every category's keyword list and
// keeps all matches, not just the first.
func DetectCategories(text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, category := range categoryOrder {
		for _, keyword := range categoryKeywords[category] {
			if containsWord(lower, keyword) {
				matched = append(matched, category)
				break
			}
		}
	}
	return matched
}

// DetectTechnologies matches the fixed technology vocabulary against the
// text. Short tags like "go" match on word boundaries to avoid firing inside
// unrelated words.
func DetectTechnologies(text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, tech := range technologyVocabulary {
		if containsWord(lower, tech) {
			matched = append(matched, tech)
		}
	}
	return matched
}

// InferEcosystems maps detected technology tags to package ecosystems via
// the fixed table. Unknown technologies imply nothing.
func InferEcosystems(technologies []string) []string {
	seen := make(map[string]bool)
	var ecosystems []string
	for _, tech := range technologies {
		for _, eco := range ecosystemsByTechnology[strings.ToLower(tech)] {
			if !seen[eco] {
				seen[eco] = true
				ecosystems = append(ecosystems, eco)
			}
		}
	}
	return ecosystems
}

// containsWord reports whether needle occurs in haystack on word boundaries.
// Multi-word needles fall back to plain substring matching.
func containsWord(haystack, needle string) bool {
	idx := 0
	for {
		pos := strings.Index(haystack[idx:], needle)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(needle)
		startOK := start == 0 || isBoundary(haystack[start-1])
		endOK := end == len(haystack) || isBoundary(haystack[end])
		if startOK && endOK {
			return true
		}
		idx = start + 1
		if idx >= len(haystack) {
			return false
		}
	}
}

func isBoundary(b byte) bool {
	return !(b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9')
}
