package domain

import "time"

// LineageEdge is a committed directed dependency between two datasets:
// the downstream dataset is derived from the upstream one.
// At most one edge exists per ordered (upstream, downstream) pair.
type LineageEdge struct {
	ID            string
	UpstreamID    string
	DownstreamID  string
	UpstreamFQN   string
	DownstreamFQN string
	CreatedAt     time.Time
}

// LineageNode bundles a dataset with its upstream and downstream closure,
// each in breadth-first discovery order (nearest dependencies first).
type LineageNode struct {
	FQN        string
	Upstream   []Dataset
	Downstream []Dataset
}
