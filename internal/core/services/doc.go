// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The Controller runs ingestion and query jobs on worker goroutines and
// publishes their progress through an events.Channel.
package services
