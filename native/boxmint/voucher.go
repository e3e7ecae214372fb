package boxmint

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"boxchain/crypto"
)

// ChainID identifies the deployment inside signed vouchers so a voucher for a
// staging ledger cannot be replayed against production.
const ChainID uint64 = 84001

// RevealVoucher is the canonical payload signed off-chain by the cosigner to
// authorise a single-phase box open. The figure identities come from the
// trusted backend; the ledger only validates range and distinctness.
type RevealVoucher struct {
	Box       string                   `json:"box"`
	Owner     string                   `json:"owner"`
	FigureIDs [RevealFigureCount]uint64 `json:"figureIds"`
	ChainID   uint64                   `json:"chainId"`
	Expiry    int64                    `json:"expiry"`
}

// CanonicalJSON returns the canonical encoding used for signing.
func (v RevealVoucher) CanonicalJSON() ([]byte, error) {
	canonical := RevealVoucher{
		Box:       strings.ToLower(strings.TrimSpace(v.Box)),
		Owner:     strings.ToLower(strings.TrimSpace(v.Owner)),
		FigureIDs: v.FigureIDs,
		ChainID:   v.ChainID,
		Expiry:    v.Expiry,
	}
	if canonical.Box == "" {
		return nil, fmt.Errorf("box required")
	}
	if canonical.Owner == "" {
		return nil, fmt.Errorf("owner required")
	}
	if canonical.ChainID == 0 {
		return nil, fmt.Errorf("chainId required")
	}
	if canonical.Expiry == 0 {
		return nil, fmt.Errorf("expiry required")
	}
	return json.Marshal(canonical)
}

// Digest computes the keccak256 hash over the canonical JSON representation.
func (v RevealVoucher) Digest() ([]byte, error) {
	canonical, err := v.CanonicalJSON()
	if err != nil {
		return nil, err
	}
	return ethcrypto.Keccak256(canonical), nil
}

// NewRevealVoucher builds the canonical voucher for the given box and owner.
func NewRevealVoucher(box [32]byte, owner [20]byte, figureIDs [RevealFigureCount]uint64, expiry int64) RevealVoucher {
	return RevealVoucher{
		Box:       hex.EncodeToString(box[:]),
		Owner:     hex.EncodeToString(owner[:]),
		FigureIDs: figureIDs,
		ChainID:   ChainID,
		Expiry:    expiry,
	}
}

// DeliveryVoucher is the canonical payload signed off-chain by the cosigner to
// authorise a delivery request at a backend-quoted fee.
type DeliveryVoucher struct {
	DeliveryID uint64   `json:"deliveryId"`
	Payer      string   `json:"payer"`
	Fee        string   `json:"fee"`
	Items      []string `json:"items"`
	ChainID    uint64   `json:"chainId"`
	Expiry     int64    `json:"expiry"`
}

// CanonicalJSON returns the canonical encoding used for signing.
func (v DeliveryVoucher) CanonicalJSON() ([]byte, error) {
	fee, err := v.FeeBig()
	if err != nil {
		return nil, err
	}
	items := make([]string, len(v.Items))
	for i, item := range v.Items {
		items[i] = strings.ToLower(strings.TrimSpace(item))
		if items[i] == "" {
			return nil, fmt.Errorf("item %d required", i)
		}
	}
	canonical := DeliveryVoucher{
		DeliveryID: v.DeliveryID,
		Payer:      strings.ToLower(strings.TrimSpace(v.Payer)),
		Fee:        fee.String(),
		Items:      items,
		ChainID:    v.ChainID,
		Expiry:     v.Expiry,
	}
	if canonical.Payer == "" {
		return nil, fmt.Errorf("payer required")
	}
	if len(canonical.Items) == 0 {
		return nil, fmt.Errorf("items required")
	}
	if canonical.ChainID == 0 {
		return nil, fmt.Errorf("chainId required")
	}
	if canonical.Expiry == 0 {
		return nil, fmt.Errorf("expiry required")
	}
	return json.Marshal(canonical)
}

// Digest computes the keccak256 hash over the canonical JSON representation.
func (v DeliveryVoucher) Digest() ([]byte, error) {
	canonical, err := v.CanonicalJSON()
	if err != nil {
		return nil, err
	}
	return ethcrypto.Keccak256(canonical), nil
}

// FeeBig parses the fee field as a non-negative big integer.
func (v DeliveryVoucher) FeeBig() (*big.Int, error) {
	trimmed := strings.TrimSpace(v.Fee)
	if trimmed == "" {
		return nil, fmt.Errorf("fee required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid fee: %s", v.Fee)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("fee must be non-negative")
	}
	return value, nil
}

// NewDeliveryVoucher builds the canonical voucher for a delivery request.
func NewDeliveryVoucher(deliveryID uint64, payer [20]byte, fee *big.Int, items [][32]byte, expiry int64) DeliveryVoucher {
	encoded := make([]string, len(items))
	for i, item := range items {
		encoded[i] = hex.EncodeToString(item[:])
	}
	feeStr := "0"
	if fee != nil {
		feeStr = fee.String()
	}
	return DeliveryVoucher{
		DeliveryID: deliveryID,
		Payer:      hex.EncodeToString(payer[:]),
		Fee:        feeStr,
		Items:      encoded,
		ChainID:    ChainID,
		Expiry:     expiry,
	}
}

// SignVoucher signs a voucher digest with the cosigner key.
func SignVoucher(v interface{ Digest() ([]byte, error) }, key *crypto.PrivateKey) ([]byte, error) {
	digest, err := v.Digest()
	if err != nil {
		return nil, err
	}
	return key.Sign(digest)
}

func recoverVoucherSigner(v interface{ Digest() ([]byte, error) }, sig []byte) ([20]byte, error) {
	digest, err := v.Digest()
	if err != nil {
		return [20]byte{}, err
	}
	return crypto.RecoverAddress(digest, sig)
}
