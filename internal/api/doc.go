// Package api serves the HTTP and WebSocket surface of `vidsub serve`.
//
// # Routes
//
//	POST   /api/runs           start a run (409 while another is active)
//	GET    /api/runs/current   snapshot of the active or last run
//	DELETE /api/runs/current   trip the active run's cancellation token
//	GET    /api/history        ledger records, newest first (?limit=N)
//	DELETE /api/history        clear the ledger
//	GET    /api/events         long-poll the event hub (?since=SEQ&wait=1)
//	GET    /api/health         dependency and preflight report
//	GET    /ws/events          stream the event hub over a WebSocket
//
// # Design Notes
//
// The server owns at most one run at a time through Manager. Every event of
// that run is published to an events.Hub, which re-sequences them so HTTP and
// WebSocket consumers can resume from a cursor across runs.
//
// When server.token is configured every /api and /ws route requires
// "Authorization: Bearer <token>"; WebSocket clients may pass ?token= instead.
// DTOs use camelCase JSON tags.
package api
