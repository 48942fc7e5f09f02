package common

// IndexSuffix is the extension of per-record metadata objects in the
// remote store, e.g. "videos/abc123.index".
const IndexSuffix = ".index"

// MasterIndexObject is the name of the per-owner master index object,
// relative to a scope root.
const MasterIndexObject = "master-index"

// ShareIndexObject lists the owners that granted the current user access.
const ShareIndexObject = "share-index"

// GroupIndexObject is the name of the owner's group index object.
const GroupIndexObject = "group-index"

// PrivateKeyObject is the name of a record's key file relative to the
// record directory, e.g. "videos/abc123/private.key".
const PrivateKeyObject = "private.key"

// DefaultRecordTypes are the type prefixes recognized when no explicit
// list arrives with a load request.
var DefaultRecordTypes = []string{"videos", "images", "audios", "docs"}
