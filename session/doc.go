// Package session stores transfer sessions and the live call table.
//
// Store is the persistence boundary. MemoryStore, RedisStore and SQLStore
// implement it with atomic compare-and-swap on the session version, and
// Manager builds create, update, listActive and sweep on top of it.
package session
