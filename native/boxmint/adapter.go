package boxmint

import (
	"boxchain/native/assets"
)

// RegistryAdapter builds and invokes asset-registry instructions. One
// instruction and one positional account list are reused across batch
// iterations: each call truncates and refills them instead of allocating
// fresh structures, so a maximum-size mint batch produces no per-item
// garbage. The adapter holds no persistent state; registry rejections
// propagate unmodified.
type RegistryAdapter struct {
	exec assets.Executor
	ix   assets.Instruction
	// backing storage for the positional account list
	target     [32]byte
	collection [32]byte
	owner      [20]byte
}

// NewRegistryAdapter wires the adapter to a registry executor.
func NewRegistryAdapter(exec assets.Executor) *RegistryAdapter {
	a := &RegistryAdapter{exec: exec}
	a.ix.Accounts = make([][]byte, 0, 3)
	return a
}

// Lookup reads the asset at the given address, if occupied.
func (a *RegistryAdapter) Lookup(addr [32]byte) (*assets.Asset, bool) {
	if a == nil || a.exec == nil {
		return nil, false
	}
	return a.exec.Lookup(addr)
}

// Occupied reports whether an address already holds an asset.
func (a *RegistryAdapter) Occupied(addr [32]byte) bool {
	_, ok := a.Lookup(addr)
	return ok
}

func (a *RegistryAdapter) refill(op assets.Op, target, collection [32]byte, owner [20]byte) {
	a.ix.Reset()
	a.ix.Op = op
	a.target = target
	a.collection = collection
	a.owner = owner
	a.ix.Accounts = append(a.ix.Accounts, a.target[:], a.collection[:], a.owner[:])
}

// Create mints a new asset at target with the given owner, collection
// reference and metadata, signed by the program authority.
func (a *RegistryAdapter) Create(authority, target, collection [32]byte, owner [20]byte, name, uri string) error {
	a.refill(assets.OpCreate, target, collection, owner)
	a.ix.Authority = authority
	a.ix.Name = name
	a.ix.URI = uri
	return a.exec.Execute(&a.ix)
}

// Burn irreversibly removes the asset at target.
func (a *RegistryAdapter) Burn(authority, target, collection [32]byte) error {
	a.refill(assets.OpBurn, target, collection, [20]byte{})
	a.ix.Authority = authority
	return a.exec.Execute(&a.ix)
}

// Transfer moves the asset at target to newOwner. Either the program
// authority or the current owner's signature authorises the move.
func (a *RegistryAdapter) Transfer(authority, target, collection [32]byte, ownerSigner, newOwner [20]byte) error {
	a.refill(assets.OpTransfer, target, collection, newOwner)
	a.ix.Authority = authority
	a.ix.OwnerSigner = ownerSigner
	return a.exec.Execute(&a.ix)
}

// Update rewrites the asset's metadata and, when collection is non-zero,
// grants membership in that collection in the same call. The registry's
// lighter update path cannot add membership, so reveal finalization relies on
// this combined form.
func (a *RegistryAdapter) Update(authority, target, collection [32]byte, name, uri string) error {
	a.refill(assets.OpUpdate, target, collection, [20]byte{})
	a.ix.Authority = authority
	a.ix.Name = name
	a.ix.URI = uri
	return a.exec.Execute(&a.ix)
}
