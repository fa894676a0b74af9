package sync

// Merge resolves two copies of the same record by last-write-wins over the
// whole record. The greater timestamp wins; on an exact tie the tombstone
// wins, so a delete is never lost to a same-instant edit. A non-tombstone
// with a strictly later timestamp overrides an earlier tombstone, which is
// how an offline re-create of a deleted id (an undelete) propagates.
//
// Either side may be nil, meaning that replica has never seen the id.
func Merge(local, remote *Record) *Record {
	switch {
	case local == nil:
		return remote
	case remote == nil:
		return local
	}
	if remote.LastModified.After(local.LastModified) {
		return remote
	}
	if local.LastModified.After(remote.LastModified) {
		return local
	}
	// Equal timestamps: prefer the tombstone, else keep the local copy.
	if remote.IsDeleted && !local.IsDeleted {
		return remote
	}
	return local
}
