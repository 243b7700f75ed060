package domain

// ViewCount is the number of recorded views of one item.
type ViewCount struct {
	Slug  string `json:"slug"`
	Views int64  `json:"views"`
}
