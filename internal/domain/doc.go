// Package domain defines the core types of the crawler: targets, date
// intervals, posts, batch rows, and the error taxonomy shared by the
// retrieval engine and the batch orchestrator.
package domain
