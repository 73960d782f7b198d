// Package localwatch marks local-directory resources as update-available
// as soon as fsnotify observes a write under their root. It is best-effort:
// the update checker skips kind=local resources, so a missed or coalesced
// event is not recovered by any other check.
package localwatch
