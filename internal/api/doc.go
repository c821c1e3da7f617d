// Package api serves the tankobon HTTP API and provides a client for it.
//
// # Endpoints
//
//	POST   /api/resolve                 submit a resolution, returns the job id
//	GET    /api/jobs                    list jobs (?status=&limit=&offset=)
//	DELETE /api/jobs                    delete every stored job
//	GET    /api/jobs/{id}               one job, active or stored
//	GET    /api/jobs/{id}/events        job events (?since=&follow=), 410 once finished
//	GET    /api/results/{seriesID}      last stored result for a series
//	GET    /api/providers               configured providers in query order
//	GET    /api/logs                    daemon log stream (?since=&limit=&follow=&tail=)
//
// DTOs use camelCase JSON tags. Timestamps are RFC3339 with milliseconds.
// When a token is configured every request needs "Authorization: Bearer
// <token>". Every response carries an X-Request-ID header.
package api
