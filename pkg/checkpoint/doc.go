// Package checkpoint persists the crawl's position in its work list.
//
// The cursor is written after every completed item, strictly after that
// item's records are stored, so a crash replays at most the item that was
// in flight. Files are replaced atomically via a temporary file and rename.
package checkpoint
