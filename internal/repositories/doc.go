// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations over a shared [sql.DB]. Songs, instruments and users carry
// sequence numbers from dedicated sequence tables, which give a stable catalog order independent of
// UUIDs and timestamps.
//
// Key Implementations:
//   - [UserRepository] : Profiles with email-based lookups
//   - [SongRepository] : Songs with owner filtering and dashboard pagination
//   - [InstrumentRepository] : Owned and shared instruments
//   - [InstrumentElementRepository] : Instrument curricula, ordered by index
//   - [SongElementRepository] : Song sections, appended in order
//   - [EvaluationRepository] : Append-only evaluation history with per-key lookups
//
// Deletes are hard deletes; foreign keys cascade song and instrument deletes to their elements and
// evaluations.
package repositories
