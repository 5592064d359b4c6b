// Package match turns a free-text spoken answer and a canonical answer into
// a verdict. It is a deterministic heuristic tuned for speech-recognition
// output: accent-tolerant consonant substitutions plus a Soundex-like code,
// not an exact oracle.
package match

import (
	"strings"
)

type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
	VerdictTimeout   Verdict = "timeout"
)

// multiWordThreshold is the fraction of correct-answer words that must have
// a phonetically similar counterpart among the spoken words.
const multiWordThreshold = 0.6

// stopWords are leading articles/prepositions stripped during normalization.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "of": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "with": true,
	"by": true, "is": true, "are": true, "was": true, "were": true,
}

// Match compares a spoken answer with the canonical answer.
// An empty or whitespace-only spoken answer means the player said nothing
// before the timer ran out.
func Match(spoken, correct string) Verdict {
	if strings.TrimSpace(spoken) == "" {
		return VerdictTimeout
	}

	spokenWords := meaningfulWords(normalize(spoken))
	correctWords := meaningfulWords(normalize(correct))

	if len(spokenWords) == 0 || len(correctWords) == 0 {
		// Normalization ate everything (answers like "A", "I", "The").
		// Fall back to raw containment.
		rawSpoken := strings.ToLower(strings.TrimSpace(spoken))
		rawCorrect := strings.ToLower(strings.TrimSpace(correct))
		if strings.Contains(rawSpoken, rawCorrect) || strings.Contains(rawCorrect, rawSpoken) {
			return VerdictCorrect
		}
		return VerdictIncorrect
	}

	if len(correctWords) == 1 {
		target := correctWords[0]
		if similar(strings.Join(spokenWords, " "), target) {
			return VerdictCorrect
		}
		for _, w := range spokenWords {
			if similar(w, target) {
				return VerdictCorrect
			}
		}
		return VerdictIncorrect
	}

	matched := 0
	for _, cw := range correctWords {
		for _, sw := range spokenWords {
			if similar(sw, cw) {
				matched++
				break
			}
		}
	}
	if float64(matched)/float64(len(correctWords)) >= multiWordThreshold {
		return VerdictCorrect
	}
	return VerdictIncorrect
}

// normalize lowercases, strips punctuation and collapses whitespace.
func normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// meaningfulWords drops stop words and anything shorter than two characters.
func meaningfulWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if len(w) < 2 || stopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

// similar reports whether two normalized strings sound alike.
func similar(a, b string) bool {
	if a == b {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	ca, cb := phoneticCode(a), phoneticCode(b)
	if ca == cb {
		return true
	}
	if ca[:3] == cb[:3] {
		return true
	}
	if ca[0] == cb[0] && digitOverlap(ca, cb) {
		return true
	}
	// Short words produce codes too coarse to trust either way; fall back to
	// plain character overlap.
	if len(a) <= 4 && len(b) <= 4 {
		return charOverlap(a, b)
	}
	return false
}

// consonantGroup maps acoustically similar consonants to the same digit.
var consonantGroup = map[byte]byte{
	'b': '1', 'f': '1', 'p': '1',
	'c': '2', 'g': '2', 'j': '2', 'k': '2', 'q': '2', 's': '2', 'x': '2', 'z': '2',
	'd': '3', 't': '3',
	'l': '4',
	'm': '5', 'n': '5',
}

func isVowel(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

// phoneticCode derives a 4-character Soundex-like code. Before encoding, a
// small table of accent-tolerant substitutions is applied (th sounds like t,
// v like b, w like v) and r/h are dropped since they are frequently swallowed
// or rolled.
func phoneticCode(word string) string {
	word = strings.ReplaceAll(word, "th", "t")
	var cleaned []byte
	lastVowel := false
	for i := 0; i < len(word); i++ {
		c := word[i]
		switch c {
		case 'v':
			c = 'b'
		case 'w':
			c = 'v'
		case 'r', 'h':
			continue
		}
		if isVowel(c) {
			// collapse vowel runs into a single placeholder
			if !lastVowel {
				cleaned = append(cleaned, 'a')
			}
			lastVowel = true
			continue
		}
		lastVowel = false
		cleaned = append(cleaned, c)
	}

	if len(cleaned) == 0 {
		return "0000"
	}

	code := []byte{cleaned[0]}
	var lastDigit byte
	if d, ok := consonantGroup[cleaned[0]]; ok {
		lastDigit = d
	}
	for _, c := range cleaned[1:] {
		d, ok := consonantGroup[c]
		if !ok {
			// vowels break up runs so a repeated consonant after a vowel
			// counts again
			lastDigit = 0
			continue
		}
		if d == lastDigit {
			continue
		}
		code = append(code, d)
		lastDigit = d
		if len(code) == 4 {
			break
		}
	}
	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}

// digitOverlap reports whether the two codes share any consonant digit.
func digitOverlap(a, b string) bool {
	for i := 1; i < len(a); i++ {
		if a[i] == '0' {
			continue
		}
		for j := 1; j < len(b); j++ {
			if a[i] == b[j] {
				return true
			}
		}
	}
	return false
}

// charOverlap reports whether the words share at least half of the shorter
// word's distinct characters.
func charOverlap(a, b string) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	seen := map[byte]bool{}
	for i := 0; i < len(a); i++ {
		seen[a[i]] = true
	}
	shared := 0
	for c := range seen {
		if strings.IndexByte(b, c) >= 0 {
			shared++
		}
	}
	return float64(shared) >= float64(len(seen))/2
}
