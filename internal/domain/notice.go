// Package domain contains the core value types shared across the pipeline.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Notice is one extracted procurement record. Notices are produced fresh on
// every polling cycle and are never persisted directly; only the derived
// fingerprint record is.
type Notice struct {
	SourceName        string `json:"source_name"`
	Title             string `json:"title"`
	Organization      string `json:"organization"`
	URL               string `json:"url"`
	ObjectDescription string `json:"object_description,omitempty"`
	// Published is kept as the source's own free-text rendering. Formats
	// vary per portal and the exact text is part of dedup stability, so it
	// is never parsed into a calendar date.
	Published   string `json:"published"`
	ClosingDate string `json:"closing_date,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Fingerprint returns the deterministic dedup id for the notice: the hex
// SHA-256 of its identity-bearing fields. Identity is deliberately narrow
// (title, organization, url) so cosmetic re-renders of the same notice do
// not produce duplicate alerts.
func (n *Notice) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(n.Title))
	h.Write([]byte{'|'})
	h.Write([]byte(n.Organization))
	h.Write([]byte{'|'})
	h.Write([]byte(n.URL))
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash returns the hex SHA-256 of the full serialized notice. Stored
// alongside the fingerprint so later tooling can tell whether incidental
// fields drifted between sightings.
func (n *Notice) ContentHash() string {
	raw, err := json.Marshal(n)
	if err != nil {
		// Notice holds only plain strings; Marshal cannot fail.
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// FingerprintRecord is the persisted form of a first sighting. Records are
// created once and never updated or deleted by the pipeline.
type FingerprintRecord struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Organization string    `db:"organization"`
	URL          string    `db:"url"`
	Published    string    `db:"published"`
	ContentHash  string    `db:"content_hash"`
	FirstSeen    time.Time `db:"first_seen"`
}

// RecordFor builds the fingerprint record persisted on a notice's first
// sighting. FirstSeen is left to the database default.
func RecordFor(n *Notice) FingerprintRecord {
	return FingerprintRecord{
		ID:           n.Fingerprint(),
		Title:        n.Title,
		Organization: n.Organization,
		URL:          n.URL,
		Published:    n.Published,
		ContentHash:  n.ContentHash(),
	}
}
