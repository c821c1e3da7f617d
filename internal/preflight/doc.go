// Package preflight provides readiness checks for the filesystem paths and
// remote services tankobon depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs each failure as a warning.
//     A failing provider does not stop the daemon; its jobs fail instead.
//   - The CLI "tankobon doctor" command prints every result.
//
// Remote checks only run for enabled providers and a configured ntfy topic.
package preflight
