package assets

// Asset is an individually addressed collectible registered with the asset
// registry. The registry owns these records; client programs reference them by
// address and mutate them only through instructions.
type Asset struct {
	Address    [32]byte
	Owner      [20]byte
	Collection [32]byte
	Authority  [32]byte
	Name       string
	URI        string
}

// Collection groups assets under a shared update authority. Membership is
// granted by minting or updating an asset with the collection reference while
// signing with the collection authority.
type Collection struct {
	ID        [32]byte
	Authority [32]byte
	Name      string
}

// Clone returns a deep copy of the asset record.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// InCollection reports whether the asset carries a collection reference.
func (a *Asset) InCollection() bool {
	return a != nil && a.Collection != ([32]byte{})
}
