// Package pathstore is an embedded document store: one JSON object kept in
// memory and written through to storage after every mutation.
//
// # Paths
//
// Values are addressed with dot-separated paths such as "user.hobbies.0".
// A segment is an object key, or an array index when the value it is applied
// to is an array. A numeric segment applied to an object is a key. The empty
// path addresses the document root.
//
// # Values
//
// [Value] is a tagged variant (null, bool, number, string, array, object)
// decided at parse time. Objects keep key order. The store never shares its
// values: [Store.Get] returns a copy and mutators store a copy.
//
// # Errors
//
// A path that does not exist is reported with a false result, not an error,
// so that probing with [Store.Has] is cheap. Type mismatches, malformed
// storage and write failures are [*Error] values matching [ErrTypeMismatch],
// [ErrMalformedStorage] and [ErrPersistence] with errors.Is. A write failure
// leaves the in-memory document mutated; call [Store.Reload] to get back in
// sync with storage.
//
// # Storage
//
// [FileStorage] is the default. [HistoryStorage] commits every write to a git
// repository and [SQLiteStorage] keeps documents in a SQLite table.
package pathstore
