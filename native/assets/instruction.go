package assets

// Op identifies one of the four registry operations.
type Op uint8

const (
	OpCreate Op = iota + 1
	OpBurn
	OpTransfer
	OpUpdate
)

// Account-list positions. Every instruction carries the same fixed shape so
// callers can refill one account slice per batch iteration instead of
// allocating a fresh list per call.
const (
	AccountTarget = iota
	AccountCollection
	AccountOwner
	accountCount
)

// Instruction is the wire shape accepted by the registry. Authority is the
// derived program signer acting on behalf of the collection; OwnerSigner, when
// set, marks an owner-authorised transfer. The Accounts slice is positional
// (target, collection, owner/new-owner) and may be reused across calls.
type Instruction struct {
	Op          Op
	Accounts    [][]byte
	Authority   [32]byte
	OwnerSigner [20]byte
	Name        string
	URI         string
}

// Reset clears the instruction for reuse, keeping the account slice capacity.
func (ix *Instruction) Reset() {
	ix.Op = 0
	ix.Accounts = ix.Accounts[:0]
	ix.Authority = [32]byte{}
	ix.OwnerSigner = [20]byte{}
	ix.Name = ""
	ix.URI = ""
}

func (ix *Instruction) target() ([32]byte, bool) {
	var out [32]byte
	if len(ix.Accounts) <= AccountTarget || len(ix.Accounts[AccountTarget]) != 32 {
		return out, false
	}
	copy(out[:], ix.Accounts[AccountTarget])
	return out, true
}

func (ix *Instruction) collection() ([32]byte, bool) {
	var out [32]byte
	if len(ix.Accounts) <= AccountCollection || len(ix.Accounts[AccountCollection]) != 32 {
		return out, false
	}
	copy(out[:], ix.Accounts[AccountCollection])
	return out, true
}

func (ix *Instruction) owner() ([20]byte, bool) {
	var out [20]byte
	if len(ix.Accounts) <= AccountOwner || len(ix.Accounts[AccountOwner]) != 20 {
		return out, false
	}
	copy(out[:], ix.Accounts[AccountOwner])
	return out, true
}
