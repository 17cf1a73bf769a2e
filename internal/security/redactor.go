// Package security keeps secrets out of logs and throttles the gateway's
// authenticated surfaces.
package security

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// RedactPlaceholder replaces every secret Redact finds.
const RedactPlaceholder = "***REDACTED***"

// Redactor scrubs secrets from strings. Literal values, typically taken
// from the configuration, are replaced first, then regular expressions for
// token shapes polybot knows about. It is safe for concurrent use; Redact
// never blocks on writers.
type Redactor struct {
	mu       sync.Mutex // serializes writers
	literals []string
	patterns []*regexp.Regexp
	current  atomic.Pointer[redaction]
}

// redaction is an immutable snapshot used by Redact.
type redaction struct {
	literals *strings.Replacer // nil when there are no literals
	patterns []*regexp.Regexp
}

// NewRedactor returns a Redactor that knows DefaultPatterns.
func NewRedactor() *Redactor {
	r := &Redactor{patterns: DefaultPatterns()}
	r.publish()
	return r
}

// AddPattern redacts every match of p.
func (r *Redactor) AddPattern(p *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, p)
	r.publish()
}

// AddLiteral redacts every occurrence of secret. Empty or repeated values
// are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.literals, secret) {
		return
	}
	r.literals = append(r.literals, secret)
	r.publish()
}

// publish swaps in a new snapshot. Callers hold r.mu.
func (r *Redactor) publish() {
	snap := &redaction{patterns: slices.Clone(r.patterns)}
	if len(r.literals) > 0 {
		// Longest first, so a secret that contains another is replaced whole.
		lits := slices.SortedFunc(slices.Values(r.literals), func(a, b string) int {
			return cmp.Compare(len(b), len(a))
		})
		pairs := make([]string, 0, 2*len(lits))
		for _, l := range lits {
			pairs = append(pairs, l, RedactPlaceholder)
		}
		snap.literals = strings.NewReplacer(pairs...)
	}
	r.current.Store(snap)
}

// Redact returns s with every known secret replaced by RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	snap := r.current.Load()
	if s == "" || snap == nil {
		return s
	}
	if snap.literals != nil {
		s = snap.literals.Replace(s)
	}
	for _, p := range snap.patterns {
		s = p.ReplaceAllLiteralString(s, RedactPlaceholder)
	}
	return s
}

// DefaultPatterns matches a Telegram bot token (bot id, colon, 35 char
// hash), including inside /bot<token>/ URLs, and bearer credentials.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`\d{5,}:[A-Za-z0-9_-]{35}`),
		regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]{8,}`),
	}
}
