package domain

// Score is the current value of the shared vote counter.
type Score struct {
	Value int64 `json:"score"`
}

// Tally breaks the score down into the votes that produced it.
type Tally struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
	Score     int64 `json:"score"`
}
