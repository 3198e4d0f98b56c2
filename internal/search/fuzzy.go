// Package search scores free text against short queries. It ranks
// stakeholder questions by topic and suggests ids for typos.
package search

import (
	"sort"
	"strings"
	"unicode"
)

// SearchResult represents a matched item with its score
type SearchResult struct {
	ID    string
	Text  string
	Index int // position of the item in the input slice
	Score float64
}

// SearchItem represents an item to be searched
type SearchItem struct {
	ID   string
	Text string
}

// Score thresholds
const (
	// WordMatch only keeps items containing a query token as a whole word or substring
	WordMatch = 0.7
	// LooseMatch also keeps in-order character matches
	LooseMatch = 0.3
)

// FuzzySearch performs fuzzy matching on a list of items. Every query token
// should match for a high score. Results are sorted by score, highest first,
// ties keep input order.
func FuzzySearch(query string, items []SearchItem, threshold float64) []SearchResult {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	return rank(tokenize(query), items, threshold, scoreAll)
}

// FuzzySearchAny scores each item by its best matching term, so a single
// matching keyword is enough. Terms may be multi-word phrases.
func FuzzySearchAny(terms []string, items []SearchItem, threshold float64) []SearchResult {
	var tokens []string
	for _, term := range terms {
		tokens = append(tokens, tokenize(term)...)
	}
	if len(tokens) == 0 {
		return nil
	}
	return rank(tokens, items, threshold, scoreBest)
}

type scorer func(tokens []string, text string) float64

func rank(tokens []string, items []SearchItem, threshold float64, score scorer) []SearchResult {
	var results []SearchResult
	for i, item := range items {
		s := score(tokens, strings.ToLower(item.Text))
		if s >= threshold && s > 0 {
			results = append(results, SearchResult{
				ID:    item.ID,
				Text:  item.Text,
				Index: i,
				Score: s,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// tokenize splits text into lowercase letter/digit runs
func tokenize(s string) []string {
	s = strings.ToLower(s)
	var tokens []string
	var current strings.Builder

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// scoreAll averages token scores and penalizes items missing a token
func scoreAll(queryTokens []string, text string) float64 {
	var totalScore float64
	matchedTokens := 0

	for _, token := range queryTokens {
		if tokenScore := scoreToken(token, text); tokenScore > 0 {
			matchedTokens++
			totalScore += tokenScore
		}
	}

	if matchedTokens < len(queryTokens) {
		totalScore *= float64(matchedTokens) / float64(len(queryTokens)) * 0.5
	}
	return totalScore / float64(len(queryTokens))
}

// scoreBest keeps the best single token score
func scoreBest(tokens []string, text string) float64 {
	var best float64
	for _, token := range tokens {
		best = max(best, scoreToken(token, text))
	}
	return best
}

// scoreToken scores one lowercase token against lowercase text
func scoreToken(token, text string) float64 {
	switch {
	case containsWord(text, token):
		return 1.0
	case strings.Contains(text, token):
		return 0.7
	case fuzzyContains(text, token):
		return 0.4
	}
	return 0
}

// containsWord checks if text contains token as a whole word
func containsWord(text, word string) bool {
	for start := 0; start < len(text); {
		idx := strings.Index(text[start:], word)
		if idx == -1 {
			return false
		}
		idx += start
		endIdx := idx + len(word)
		if (idx == 0 || !isWordByte(text[idx-1])) && (endIdx == len(text) || !isWordByte(text[endIdx])) {
			return true
		}
		start = idx + 1
	}
	return false
}

func isWordByte(b byte) bool {
	r := rune(b)
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// fuzzyContains checks if text contains characters of pattern in order
// with limited gaps (allows for typos and abbreviations)
func fuzzyContains(text, pattern string) bool {
	if len(pattern) == 0 {
		return true
	}
	if len(text) == 0 {
		return false
	}

	patternIdx := 0
	gaps := 0
	maxGaps := len(pattern)

	for i := 0; i < len(text) && patternIdx < len(pattern); i++ {
		if text[i] == pattern[patternIdx] {
			patternIdx++
			gaps = 0
		} else if patternIdx > 0 {
			gaps++
			if gaps > maxGaps {
				return false
			}
		}
	}

	return patternIdx == len(pattern)
}

// Suggest returns up to limit candidates resembling query, best first
func Suggest(query string, candidates []string, limit int) []string {
	items := make([]SearchItem, len(candidates))
	for i, c := range candidates {
		// dashes become spaces so "policy makers" finds "policy-makers"
		items[i] = SearchItem{ID: c, Text: strings.ReplaceAll(c, "-", " ")}
	}
	var out []string
	for _, r := range FuzzySearch(query, items, LooseMatch) {
		if len(out) == limit {
			break
		}
		out = append(out, r.ID)
	}
	return out
}
