// Package services implements the practice-tracking use cases on top of the repositories.
//
// # Practice
//
// [Practice] is the single entry point used by the HTTP server and the CLI. Each method receives the
// acting user's ID, checks that the user owns (or, for shared instruments, can see) the entities
// involved, and then delegates to the repositories.
//
// # Loading
//
// Read paths load what they need at the call boundary and pass plain values on. [Practice.LoadSnapshot]
// fetches songs, instruments, both kinds of elements and the evaluation history concurrently with an
// [errgroup.Group]; [Practice.Report] feeds the snapshot to [stats.Compute].
//
// # Error Handling
//
// Methods return wrapped sentinel errors from the shared package:
//   - [shared.ErrNotFound] : the entity does not exist
//   - [shared.ErrForbidden] : the entity belongs to someone else, or is shared and read-only
//   - [shared.ErrInvalidInput] : the request names an impossible subject
//   - [shared.ErrInvalidLevel] : the level is outside 1..5
//
// [Practice.Report] never fails. When loading fails it logs the error and returns [stats.Empty].
package services
