// Package jobs tracks asynchronous metadata resolution runs.
//
// A run reports progress through an EventFlow, an append-only stream that
// replays its full history to every subscriber. The Tracker registers a
// MetadataJob per run, listens to its flow on a supervised Scheduler, and
// persists the terminal state through a Store once the flow reports
// completion or failure. Only active jobs expose their flow; finished jobs
// are read back from the Store.
package jobs
