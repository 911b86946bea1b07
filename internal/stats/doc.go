// package stats turns an evaluation history into practice statistics.
//
// The package has two halves. The resolver ([Latest], [Current]) reduces the append-only history to
// one current evaluation per [models.Key]. The calculator ([AverageLevel], [LevelHistogram],
// [MasteryPercentage], [PerSong], [PerInstrument], [RecentActivity] and [Compute]) derives summaries
// from the current set and the user's catalog.
//
// Everything here is a pure function of its arguments. Loading the inputs is the job of the services
// package, and rounding for display is the job of the formatter and server packages.
package stats
