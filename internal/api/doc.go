// Package api hosts the HTTP server, middleware, and JSON handlers for the
// query desk. Notable routes:
//   - POST /v1/queries to submit a query.
//   - GET /v1/matches?value= to find other users' submissions.
//   - POST /v1/flags to flag the caller's task.
//   - GET /v1/ratings?target= to look up a QA rating.
//   - GET /healthz / readyz for probes and GET /metrics for Prometheus.
package api
