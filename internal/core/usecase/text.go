package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "this": {},
	"that": {}, "are": {}, "was": {}, "has": {}, "have": {}, "per": {},
	"each": {}, "pcs": {}, "pieces": {}, "qty": {}, "quantity": {},
	"approx": {}, "about": {}, "type": {}, "item": {}, "need": {},
	"needed": {}, "required": {}, "please": {}, "urgent": {}, "asap": {},
}

// splitAlphaNumLower lowercases s and splits it into alphanumeric runs.
// Decimal points inside numbers are kept so "12.5mm" tokenizes as "12.5", "mm".
func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	var kind rune // 'a' letters, 'd' digits, 0 outside a token
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
		kind = 0
	}

	runes := []rune(s)
	for i, r := range runes {
		r = unicode.ToLower(r)
		switch {
		case r >= 'a' && r <= 'z':
			if kind == 'd' {
				flush()
			}
			kind = 'a'
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if kind == 'a' {
				flush()
			}
			kind = 'd'
			b.WriteRune(r)
		case r == '.' && kind == 'd' && i+1 < len(runes) && isDigit(runes[i+1]):
			b.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func toTokenSet(s string) map[string]struct{} {
	tokens := splitAlphaNumLower(s)
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

func tokenOverlap(query, target map[string]struct{}) float64 {
	if len(query) == 0 || len(target) == 0 {
		return 0
	}
	matches := 0
	for token := range query {
		if _, ok := target[token]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

// normalizeText lowercases, strips punctuation except hyphens and in-number
// decimal points, and collapses whitespace. The normalized-description and
// fuzzy strategies skip work when this is a no-op on their input.
func normalizeText(s string) string {
	tokens := splitHyphenAware(s)
	return strings.Join(tokens, " ")
}

var hyphenCompoundRe = regexp.MustCompile(`[a-z0-9]+(?:-[a-z0-9]+)+`)

// splitHyphenAware is splitAlphaNumLower but keeps hyphenated compounds
// ("self-tapping") as single tokens.
func splitHyphenAware(s string) []string {
	cleaned := strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '.' {
			return r
		}
		return ' '
	}, s)

	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "-.")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// significantTokens drops stop words and tokens of one or two characters.
func significantTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) <= 2 {
			continue
		}
		if _, stop := stopWords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// extractKeyTerms builds the key-terms strategy query: significant plain
// tokens plus hyphenated compounds, deduplicated in first-seen order, capped
// at ten terms.
func extractKeyTerms(s string) []string {
	lower := strings.ToLower(s)
	terms := significantTokens(splitAlphaNumLower(lower))
	terms = append(terms, hyphenCompoundRe.FindAllString(lower, -1)...)

	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == 10 {
			break
		}
	}
	return out
}

// extractNumbers returns every numeric token in s, including decimals.
func extractNumbers(s string) []float64 {
	out := make([]float64, 0, 4)
	for _, token := range splitAlphaNumLower(s) {
		if v, err := strconv.ParseFloat(token, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// normalizeIdentifier strips spaces and separators for identifier equality
// checks: "st 001" and "ST-001" compare equal.
func normalizeIdentifier(s string) string {
	return strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s)
}
