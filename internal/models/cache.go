package models

// CacheEntry is one row of the cached_indexes table: a locally re-encrypted
// copy of a record's metadata, keyed by a derived identifier.
type CacheEntry struct {
	Id          string
	Payload     []byte
	Nonce       []byte
	Section     string
	LastUpdated int64
	ShareeName  string
	IsPublic    bool
}

// SearchHash is one row of the searchable_hashes table: a salted hash of a
// bounded-length prefix of a stemmed search token, linked to its cache row.
type SearchHash struct {
	Id      string
	HashId  string
	CacheId string
}
