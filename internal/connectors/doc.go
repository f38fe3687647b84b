// Package connectors provides document sources for ingestion. Each
// connector knows how to find documents in one kind of location and how
// to report when they change.
package connectors
