// Package models defines the wire and cache types of the sync engine:
// the per-owner master index, decrypted record metadata, locally cached
// rows, and the sharing/group structures that drive reconciliation fan-out.
package models

import "strings"

// MasterIndex maps a logical record path ("videos/abc.index") to its
// last-modified timestamp in unix milliseconds. A nil timestamp means
// "unknown freshness": the reconciler trusts the local cache once the
// record is present and re-fetches only brand-new identifiers.
type MasterIndex map[string]*int64

// Clone returns a shallow copy safe to mutate during a sync pass.
func (m MasterIndex) Clone() MasterIndex {
	out := make(MasterIndex, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// RecordMetadata is the decrypted content of one record's index object.
type RecordMetadata struct {
	Id             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Keywords       []string `json:"keywords"`
	Type           string   `json:"type"`
	Owner          string   `json:"owner"`
	CreatedUTC     int64    `json:"createdUTC"`
	LastUpdatedUTC int64    `json:"lastUpdatedUTC"`
	Manifest       []string `json:"manifest"`
	IsPublic       bool     `json:"isPublic"`

	// Cipher is only present in old-format records, which the engine
	// skips instead of caching.
	Cipher string `json:"cipher,omitempty"`
}

// IsLegacy reports whether the record uses the old inline-cipher format.
func (r *RecordMetadata) IsLegacy() bool {
	return r.Cipher != ""
}

// RecordType extracts the type prefix from a logical path, e.g.
// "videos/abc.index" -> "videos". Empty when the path has no directory.
func RecordType(path string) string {
	i := strings.IndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}

// ShareEntry names one owner whose shared data the current user may read.
type ShareEntry struct {
	Username  string `json:"username"`
	PublicKey string `json:"publicKey"`
}

// ShareList is the owner's share-index object.
type ShareList struct {
	Entries []ShareEntry `json:"entries"`
}

// GroupEntry is one ordered member of a group index.
type GroupEntry struct {
	IndexFile string `json:"indexFile"`
	UserName  string `json:"userName"`
	SortKey   string `json:"sortKey"`
}

// GroupIndex is an owner-maintained ordered list of records grouped for
// shared viewing. It is read to drive validation, never cached locally.
type GroupIndex struct {
	Id      string       `json:"id"`
	Entries []GroupEntry `json:"entries"`
}
