// Package models defines domain entities and persistence interfaces for the repertoire practice tracker.
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps and validation:
//   - [User] : Profile of a user signed in through the upstream auth proxy
//   - [Song] : A song in a user's repertoire, optionally assigned to an instrument
//   - [Instrument] : An instrument owned by a user, or shared when it has no owner
//   - [InstrumentElement] : A learnable part of an instrument's curriculum ("strumming pattern")
//   - [SongElement] : A section of a song ("intro", "chorus")
//   - [Evaluation] : A self-assessed mastery [Level] for one [Key] at a point in time
//
// Evaluations are append-only. The history for a [Key] is every evaluation sharing it, and the current
// state is the one with the latest evaluation time.
//
// The Repository[T] interface defines standard CRUD operations for database access.
package models
