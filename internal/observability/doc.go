// Package observability provides structured logging and Prometheus metrics
// for the dashboard API and client.
package observability
