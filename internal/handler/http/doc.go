// Package http implements the control API of the sync daemon.
//
// It exposes on-demand full syncs, the bulk migration, the status snapshot
// and session management. Request tracing, access logging and response
// compression are handled in this package before requests are delegated to
// the service layer.
package http
