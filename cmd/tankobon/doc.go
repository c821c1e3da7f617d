// Command tankobon resolves comic and manga series metadata from the
// configured providers.
//
// "tankobon serve" runs the HTTP daemon. "resolve", "jobs", "providers",
// "doctor", and "config" work in-process against the local configuration and
// job database. "submit", "logs", and "jobs watch" talk to a running daemon
// at server.bind.
package main
