// Package crawler runs the endless crawl-and-reconcile loop.
//
// One work item is processed at a time. For each item the crawler drives
// the browser to the item's page, extracts what it shows, reconciles the
// observation against stored state through the ledger and writes the
// result through a storage.Gateway. The progress cursor advances only
// after those writes, then the pacer sleeps before the next item. When
// the work list is exhausted the crawler cools down and starts the next
// cycle at index 0.
//
// Cancellation is observed between items and inside pacing sleeps only.
// An item in flight always runs to completion.
package crawler
