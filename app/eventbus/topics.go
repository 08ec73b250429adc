// Package eventbus carries domain events over NATS JetStream through
// Watermill.
package eventbus

// Topics are NATS subjects; the version suffix changes when a payload does.
const (
	RaceResultsSubmittedV1 = "race.results.submitted.v1"
	RosterSubmittedV1      = "roster.submitted.v1"
	CompetitionLockedV1    = "competition.locked.v1"
	CompetitionFinalizedV1 = "competition.finalized.v1"
	ScoringUpdatedV1       = "scoring.updated.v1"
	ScoringFailedV1        = "scoring.failed.v1"
)
