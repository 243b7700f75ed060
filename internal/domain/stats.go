package domain

import (
	"math"
	"sort"
)

// AverageReadTime returns round(totalWords / published / WordsPerMinute),
// or 0 when nothing is published.
func AverageReadTime(totalWords, published int) int {
	if published <= 0 {
		return 0
	}
	return int(math.Round(float64(totalWords) / float64(published) / WordsPerMinute))
}

// SortTermCounts orders terms by descending count, then by name.
func SortTermCounts(terms []TermCount) {
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Name < terms[j].Name
	})
}

// ComputeStats builds a Stats snapshot from a full scan of items.
// It backs repositories that cannot aggregate server-side.
func ComputeStats(items []*Item) *Stats {
	st := &Stats{}
	categories := make(map[string]struct{})
	tags := make(map[string]struct{})
	authors := make(map[string]struct{})

	for _, it := range items {
		fm := it.Frontmatter
		if fm.Draft {
			st.DraftCount++
			continue
		}
		st.TotalItems++
		st.TotalWords += it.WordCount
		if fm.Featured {
			st.FeaturedCount++
		}
		if fm.Category != "" {
			categories[fm.Category] = struct{}{}
		}
		for _, t := range fm.Tags {
			if t != "" {
				tags[t] = struct{}{}
			}
		}
		if fm.Author.Name != "" {
			authors[fm.Author.Name] = struct{}{}
		}
	}

	st.TotalCategories = len(categories)
	st.TotalTags = len(tags)
	st.TotalAuthors = len(authors)
	st.AverageReadTimeMinutes = AverageReadTime(st.TotalWords, st.TotalItems)
	return st
}
