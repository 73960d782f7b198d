package domain

import "strconv"

// SearchMode selects which subtrack(s) Hybrid Search consults.
type SearchMode string

const (
	SearchHybrid SearchMode = "hybrid"
	SearchText   SearchMode = "text"
	SearchVector SearchMode = "vector"
)

// MatchType reports which channel(s) produced a given result.
type MatchType string

const (
	MatchHybrid MatchType = "hybrid"
	MatchText   MatchType = "text"
	MatchVector MatchType = "vector"
)

// RRFConstant is the reciprocal-rank-fusion constant K used to merge the
// text and vector subtracks.
const RRFConstant = 60

// SearchOptions configures a Hybrid Search query.
type SearchOptions struct {
	Query       string
	ResourceIDs []string
	Mode        SearchMode
	Alpha       float64
	TopK        int
}

// Clamp normalizes Alpha to [0,1] (NaN maps to 0.5) and TopK to [1,50],
// and defaults Mode to hybrid when empty.
func (o *SearchOptions) Clamp() {
	if o.Alpha != o.Alpha { // NaN
		o.Alpha = 0.5
	}
	if o.Alpha < 0 {
		o.Alpha = 0
	}
	if o.Alpha > 1 {
		o.Alpha = 1
	}
	if o.TopK < 1 {
		o.TopK = 1
	}
	if o.TopK > 50 {
		o.TopK = 50
	}
	if o.Mode == "" {
		o.Mode = SearchHybrid
	}
}

// SearchResult is a single hybrid/text/vector search hit.
type SearchResult struct {
	ChunkID      *string   `json:"chunkId"`
	ResourceID   string    `json:"resourceId"`
	ResourceName string    `json:"resourceName"`
	Filepath     string    `json:"filepath"`
	LineStart    int       `json:"lineStart"`
	LineEnd      int       `json:"lineEnd"`
	Text         string    `json:"text"`
	Score        float64   `json:"score"`
	MatchType    MatchType `json:"matchType"`
	MatchSources []string  `json:"matchSources"`
}

// Key returns the fusion key: chunkID when present, else a positional key.
func (r *SearchResult) Key() string {
	if r.ChunkID != nil && *r.ChunkID != "" {
		return "chunk:" + *r.ChunkID
	}
	return r.ResourceID + ":" + r.Filepath + ":" + strconv.Itoa(r.LineStart)
}
