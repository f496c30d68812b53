// Package transcache persists translations across runs in a SQLite database.
//
// Entries are keyed by (target language, SHA-256 of the exact source text);
// the source text is stored alongside so a hash collision can never return
// another segment's translation. The in-run cache in package dubbing sits in
// front of this store and treats every store error as a cache miss.
package transcache
