package models

import "time"

// Kind is a closed tag decided once at the ingestion boundary. The
// classifier dispatches on it; nothing downstream probes payload fields.
type Kind string

const (
	KindText      Kind = "text"
	KindMedia     Kind = "media"
	KindDiscovery Kind = "discovery"
	KindUnknown   Kind = "unknown"
)

// LatencyClass routes a publishable unit to the fast or slow publisher.
type LatencyClass string

const (
	ClassFast LatencyClass = "fast"
	ClassSlow LatencyClass = "slow"
)

// RawItem is one inbound event from a source feed. Immutable once
// enqueued; consumed exactly once by a classifier worker.
type RawItem struct {
	ID         string `json:"id"`
	SourceID   string `json:"source_id"`
	Kind       Kind   `json:"kind"`
	Payload    string `json:"payload"`
	MediaBytes int64  `json:"media_bytes,omitempty"`
	TS         int64  `json:"ts,omitempty"`
}

// CandidateUnit is one publishable unit extracted from a RawItem by the
// classifier. A single RawItem may yield zero or more units.
type CandidateUnit struct {
	Text     string
	Rendered string
	Class    LatencyClass
}

// PublishItem is a deduplicated, rendered unit bound for a publisher.
// Created only after a winning dedup insert; consumed exactly once.
type PublishItem struct {
	Type     Kind
	Rendered string
	SourceID string
	Class    LatencyClass
}

// DedupRecord is the persisted first-seen marker for a fingerprint.
// The race winner's source owns attribution.
type DedupRecord struct {
	Fingerprint string    `json:"fingerprint"`
	SourceID    string    `json:"source_id"`
	FirstSeenAt time.Time `json:"first_seen_at"`
}
