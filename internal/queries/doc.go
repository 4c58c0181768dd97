// Package queries implements the query desk services on top of a row store:
// submitting a query, finding other users' matching submissions, flagging a
// submitted task and looking up its QA rating.
//
// Every operation re-reads the whole table and scans it linearly. Callers pass
// the caller's email explicitly; the services keep no per-user state.
package queries
