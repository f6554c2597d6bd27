package resolver

// adjectives is a small closed lookup of common English adjectives used
// to extract a qualifying word from a foreign key's remote column names
// when two relationships on the same source collide by name (spec
// §4.6.2). No POS-tagging library appears anywhere in the retrieval
// pack this module was grounded on, so this follows the same
// hand-rolled, closed-word-list convention the teacher itself uses for
// reserved-word detection rather than reaching outside the ecosystem
// for a runtime dependency.
var adjectives = map[string]bool{
	"active":    true,
	"primary":   true,
	"secondary": true,
	"main":      true,
	"billing":   true,
	"shipping":  true,
	"current":   true,
	"previous":  true,
	"default":   true,
	"preferred": true,
	"original":  true,
	"temporary": true,
	"permanent": true,
	"public":    true,
	"private":   true,
	"internal":  true,
	"external":  true,
	"legacy":    true,
	"pending":   true,
	"approved":  true,
	"rejected":  true,
	"archived":  true,
	"final":     true,
	"draft":     true,
}

// isAdjective reports whether word is in the built-in adjective lookup.
func isAdjective(word string) bool {
	return adjectives[word]
}
