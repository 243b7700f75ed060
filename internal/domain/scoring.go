package domain

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

const (
	// Scoring weights
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0
	ScoreFuzzyMatch     = 25.0

	// Position bonus (earlier words in a field are better)
	ScorePositionBonus = 10.0

	// Field weights: a title hit outranks a tag hit, which outranks a description hit.
	WeightTitle       = 3.0
	WeightTags        = 2.0
	WeightDescription = 1.0
)

// Candidate is an item with its relevance to a text query.
type Candidate struct {
	Item  *Item
	Score float64
}

// ParseTerms lowercases the query and splits it into word terms.
// Example: "Go, Mongo & S3" -> ["go", "mongo", "s3"]
func ParseTerms(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Score computes how well item matches the query terms. Every term must
// match at least one indexed field, otherwise the score is 0.
func Score(terms []string, item *Item) float64 {
	if len(terms) == 0 || item == nil {
		return 0.0
	}

	fm := item.Frontmatter
	title := ParseTerms(fm.Title)
	description := ParseTerms(fm.Description)
	tags := make([]string, 0, len(fm.Tags))
	for _, t := range fm.Tags {
		tags = append(tags, ParseTerms(t)...)
	}

	var total float64
	for _, term := range terms {
		termScore := WeightTitle*bestFragmentScore(term, title) +
			WeightTags*bestFragmentScore(term, tags) +
			WeightDescription*bestFragmentScore(term, description)
		if termScore == 0.0 {
			return 0.0
		}
		total += termScore
	}
	return total
}

// bestFragmentScore returns the best score of term against any word of a field.
func bestFragmentScore(term string, words []string) float64 {
	best := 0.0
	for i, w := range words {
		if s := scoreFragment(term, w, i); s > best {
			best = s
		}
	}
	return best
}

// scoreFragment scores a single query term against one field word
func scoreFragment(term, word string, position int) float64 {
	if term == "" || word == "" {
		return 0.0
	}

	// Exact match
	if term == word {
		return ScoreExactMatch + calculatePositionBonus(position)
	}

	// Prefix match
	if strings.HasPrefix(word, term) {
		return ScorePrefixMatch + calculatePositionBonus(position)
	}

	// Substring match
	if idx := strings.Index(word, term); idx >= 0 {
		// Earlier substring matches get higher score
		substringBonus := ScorePositionBonus * (1.0 - float64(idx)/float64(len(word)))
		return ScoreSubstringMatch + substringBonus
	}

	// Fuzzy match only for terms long enough to carry meaning
	if len(term) >= 4 {
		if similarity := calculateSimilarity(term, word); similarity > 0.8 {
			return ScoreFuzzyMatch * similarity
		}
	}

	return 0.0
}

// calculatePositionBonus gives bonus for earlier positions
func calculatePositionBonus(position int) float64 {
	return ScorePositionBonus * math.Exp(-float64(position)*0.3)
}

// calculateSimilarity is the share of term runes that also appear in word,
// penalised by the length difference.
func calculateSimilarity(term, word string) float64 {
	if term == "" || word == "" {
		return 0.0
	}

	matches := 0
	for _, c := range term {
		if strings.ContainsRune(word, c) {
			matches++
		}
	}

	ratio := float64(matches) / float64(len(term))
	lenDiff := math.Abs(float64(len(word) - len(term)))
	return ratio * (1.0 / (1.0 + lenDiff/float64(len(term))))
}

// RankCandidates scores items against query and drops non-matches.
// Candidates are ordered by descending score, ties by slug.
func RankCandidates(query string, items []*Item) []*Candidate {
	terms := ParseTerms(query)
	candidates := make([]*Candidate, 0, len(items))

	for _, item := range items {
		score := Score(terms, item)
		if score == 0.0 {
			continue
		}
		candidates = append(candidates, &Candidate{Item: item, Score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Item.Slug() < candidates[j].Item.Slug()
	})

	return candidates
}
