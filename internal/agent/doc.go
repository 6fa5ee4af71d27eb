// Package agent holds the registry of configured webhook agents and the
// proxy that queries them.
//
// Each agent is a black-box HTTP GET endpoint. The proxy issues a single
// best-effort request per query and normalizes the heterogeneous response
// shapes different workflow engines produce into one canonical Answer.
// Upstream failures never propagate to callers: they become a fixed apology
// answer so the conversation keeps flowing.
package agent
