package driven

import "context"

// TextSearcher runs a pattern against materialized files on disk and
// returns line hits via ripgrep's JSON record format. It is a live grep,
// not a persisted inverted index.
type TextSearcher interface {
	// Search runs pattern (a literal string or a regex alternation,
	// depending on the caller) against dir, case-insensitively unless the
	// pattern contains an uppercase letter (smart case), excluding lock
	// files/minified assets/build output. Returns at most maxHits.
	Search(ctx context.Context, dir, pattern string, isRegex bool, maxHits int) ([]TextHit, error)
}

// TextHit is a single matched line.
type TextHit struct {
	Filepath string // POSIX-relative to dir
	Line     int    // 1-based
}
