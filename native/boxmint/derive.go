package boxmint

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// DeriveAddress computes the deterministic address for a seed tag, ordered
// disambiguator parts and a bump byte. Batch-minted boxes use a per-call
// nonce plus positional index so addresses never depend on the global minted
// counter; figures and receipts use their domain identifier so a double mint
// at the same id deterministically collides instead of silently duplicating.
func DeriveAddress(tag string, parts [][]byte, bump byte) [32]byte {
	buf := make([]byte, 0, len(tag)+1+len(parts)*8)
	buf = append(buf, tag...)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	buf = append(buf, bump)
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(buf))
	return out
}

// VerifyDerived re-derives the address from its claimed seeds and compares.
// Callers may supply bumps to save recomputing them, but the claim is never
// trusted without this check.
func VerifyDerived(addr [32]byte, tag string, parts [][]byte, bump byte) error {
	if DeriveAddress(tag, parts, bump) != addr {
		return ErrBadDerivation
	}
	return nil
}

// BoxSeedParts returns the disambiguators for the i-th box of a mint batch.
func BoxSeedParts(nonce uint64, index uint32) [][]byte {
	nonceBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(nonceBytes, nonce)
	indexBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(indexBytes, index)
	return [][]byte{nonceBytes, indexBytes}
}

// IDSeedParts returns the disambiguators for an asset keyed by its domain id.
func IDSeedParts(id uint64) [][]byte {
	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, id)
	return [][]byte{idBytes}
}

// ReceiptSeedParts returns the disambiguators for a receipt referencing an
// asset of the given kind.
func ReceiptSeedParts(kind ReceiptKind, refID uint64) [][]byte {
	refBytes := make([]byte, 9)
	refBytes[0] = byte(kind)
	binary.BigEndian.PutUint64(refBytes[1:], refID)
	return [][]byte{refBytes}
}

// PendingSeedParts returns the disambiguators for a pending-reveal record.
func PendingSeedParts(box [32]byte) [][]byte {
	return [][]byte{box[:]}
}

// DeliverySeedParts returns the disambiguators for a delivery record.
func DeliverySeedParts(deliveryID uint64) [][]byte {
	return IDSeedParts(deliveryID)
}
