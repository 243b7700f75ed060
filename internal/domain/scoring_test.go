package domain

import "testing"

func scoringItems() []*Item {
	mk := func(slug, title, desc string, tags ...string) *Item {
		return &Item{Frontmatter: Frontmatter{Slug: slug, Title: title, Description: desc, Tags: tags}}
	}
	return []*Item{
		mk("mongo-indexes", "MongoDB index design", "Compound and text indexes", "mongodb", "database"),
		mk("react-hooks", "React hooks in practice", "State without classes", "react", "frontend"),
		mk("go-services", "Building services in Go", "HTTP services backed by MongoDB", "go", "backend"),
	}
}

func TestParseTerms(t *testing.T) {
	got := ParseTerms("Go, Mongo & S3")
	want := []string{"go", "mongo", "s3"}
	if len(got) != len(want) {
		t.Fatalf("ParseTerms() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseTerms()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRankCandidates(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		expectedTop string
		expectedLen int
	}{
		{"title beats description", "mongodb", "mongo-indexes", 2},
		{"prefix match", "reac", "react-hooks", 1},
		{"all terms required", "react mongodb", "", 0},
		{"tag match", "backend", "go-services", 1},
		{"no match", "kubernetes", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := RankCandidates(tt.query, scoringItems())
			if len(candidates) != tt.expectedLen {
				t.Fatalf("RankCandidates(%q) returned %d candidates, want %d", tt.query, len(candidates), tt.expectedLen)
			}
			if tt.expectedLen > 0 && candidates[0].Item.Slug() != tt.expectedTop {
				t.Errorf("top = %s, want %s", candidates[0].Item.Slug(), tt.expectedTop)
			}
		})
	}
}

func TestScoreEmptyQuery(t *testing.T) {
	if s := Score(nil, scoringItems()[0]); s != 0 {
		t.Errorf("Score(nil) = %v, want 0", s)
	}
	if s := Score([]string{"go"}, nil); s != 0 {
		t.Errorf("Score(nil item) = %v, want 0", s)
	}
}
