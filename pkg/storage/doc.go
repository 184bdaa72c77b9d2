// Package storage defines the crawler's persistence boundary.
//
// Gateway is implemented by two backends:
//   - tabular: UsersTable, PostsTable and Changes files in xlsx or csv
//     form, rewritten whole and replaced atomically on every operation
//   - sqlite: the same three tables in an embedded database
//
// Retrying wraps either backend with bounded backoff. AcquireLock takes an
// exclusive lock on the storage directory so only one crawler writes it.
package storage
