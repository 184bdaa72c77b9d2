// Package pacing decides how long the crawler waits and when it stops
// scrolling.
//
// Every wait goes through a Sleeper, so tests drive the crawl loop with a
// fake clock. Scroll collection is a ScrollSession: the caller scrolls,
// measures the page height and feeds it to Observe until the session
// reports Stuck or Exhausted.
package pacing
