// Package githubresolve wraps a driven.Materializer with a fast path for
// RemoteHead: when a resource's URL points at github.com, it asks the
// GitHub API for the branch's current commit instead of shelling out to
// git ls-remote. Any other URL, or any API failure, falls through to the
// wrapped Materializer unchanged.
package githubresolve
