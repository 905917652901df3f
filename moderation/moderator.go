// Package moderation masks forbidden words in message content before it is
// persisted. Matching runs over a normalized view of the text (lowercased,
// leet speak folded, punctuation and spacing stripped) so trivial obfuscation
// does not bypass the word list.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// leetFold maps common substitution characters back to the letter they mimic.
var leetFold = map[rune]rune{
	'4': 'a', '@': 'a',
	'3': 'e', '€': 'e',
	'1': 'i', '!': 'i', '|': 'i',
	'0': 'o',
	'5': 's', '$': 's',
}

// Censor replaces every character of a matched span with the mask rune.
type Censor struct {
	machine *goahocorasick.Machine
	mask    rune
}

// NewCensor builds the Aho-Corasick automaton over the normalized word list.
func NewCensor(words []string, mask rune) (Censor, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		normalized, _ := normalize(word)
		if len(normalized) == 0 {
			continue
		}
		patterns = append(patterns, normalized)
	}
	if len(patterns) == 0 {
		// No word list configured: the censor passes content through untouched.
		return Censor{mask: mask}, nil
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return Censor{}, err
	}
	return Censor{machine: machine, mask: mask}, nil
}

// Apply returns the input with every forbidden span masked. Input without a
// match comes back unchanged.
func (c Censor) Apply(content string) string {
	if c.machine == nil {
		return content
	}
	normalized, origin := normalize(content)
	if len(normalized) == 0 {
		return content
	}
	spans := c.machine.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return content
	}

	runes := []rune(content)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origin) {
			continue
		}
		// origin maps normalized positions back to positions in the input.
		for i := origin[start]; i <= origin[end-1]; i++ {
			runes[i] = c.mask
		}
	}
	return string(runes)
}

// normalize lowercases and folds the input, skipping punctuation, symbols and
// spacing. The second return value maps each kept rune back to its index in
// the original string.
func normalize(input string) ([]rune, []int) {
	runes := []rune(input)
	normalized := make([]rune, 0, len(runes))
	origin := make([]int, 0, len(runes))
	for i, r := range runes {
		if folded, ok := leetFold[r]; ok {
			r = folded
		} else if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		normalized = append(normalized, unicode.ToLower(r))
		origin = append(origin, i)
	}
	return normalized, origin
}
