// Package daemon coordinates the long-running tankobon process.
//
// It ties the job store, the live job tracker, and the HTTP API into a single
// lifecycle with flock-based locking to prevent multiple instances. On start
// the daemon fails any job a previous process left RUNNING, since its event
// flow died with that process.
//
// Keep orchestration logic here: resolution itself lives in the resolver
// package, while the daemon focuses on startup, shutdown, and status.
package daemon
