package boxmint

import (
	"fmt"
	"math/big"
)

// Template string caps. Metadata is synthesised per asset inside the mint
// loop, so these stay tiny to keep even a full 30-unit batch cheap.
const (
	MaxNamePrefix = 8
	MaxSymbol     = 10
	MaxURIBase    = 96
)

// MaxPerTxHardCap bounds the configurable per-transaction batch size. The
// account-model registry makes each mint a full create call, so batches above
// this size cannot complete inside one frame.
const MaxPerTxHardCap = 30

// MaxDeliveryItems caps the number of assets redeemed in a single delivery.
const MaxDeliveryItems = 10

// RevealFigureCount is the number of figures revealed per opened box.
const RevealFigureCount = 3

// Derivation seed tags. Each address class gets its own tag so no two valid
// operations can collide.
const (
	SeedConfig   = "config"
	SeedBox      = "box"
	SeedFigure   = "figure"
	SeedReceipt  = "receipt"
	SeedPending  = "pending"
	SeedDelivery = "delivery"
)

// Config is the singleton configuration and supply ledger. It is created
// exactly once and mutated only by the sale engine (Minted) and the admin
// treasury setter.
type Config struct {
	Address [32]byte

	Admin    [20]byte
	Treasury [20]byte
	Cosigner [20]byte

	BoxCollection     [32]byte
	FigureCollection  [32]byte
	ReceiptCollection [32]byte

	Price     *big.Int
	MaxSupply uint32
	MaxPerTx  uint8
	Minted    uint32

	NamePrefix string
	Symbol     string
	URIBase    string

	// Explicit URI bases for figures and receipts, populated once at
	// initialize time from URIBase. Persisting them avoids re-running the
	// segment substitution on every reveal.
	FigureURIBase        string
	ReceiptBoxURIBase    string
	ReceiptFigureURIBase string

	DeliveryFeeMin *big.Int
	DeliveryFeeMax *big.Int
	RecordDeposit  *big.Int

	// MaxFigureID bounds the reveal identifier domain.
	MaxFigureID uint64

	Bump byte
}

// Clone returns a deep copy so callers can mutate without affecting the
// stored instance.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Price = cloneBigInt(c.Price)
	clone.DeliveryFeeMin = cloneBigInt(c.DeliveryFeeMin)
	clone.DeliveryFeeMax = cloneBigInt(c.DeliveryFeeMax)
	clone.RecordDeposit = cloneBigInt(c.RecordDeposit)
	return &clone
}

// SanitizeConfig validates the supplied configuration, returning a cloned
// instance with non-nil amount fields. The original value is not mutated.
func SanitizeConfig(c *Config) (*Config, error) {
	if c == nil {
		return nil, fmt.Errorf("boxmint: nil config")
	}
	clone := c.Clone()
	if clone.MaxSupply == 0 {
		return nil, ErrInvalidMaxSupply
	}
	if clone.MaxPerTx == 0 || clone.MaxPerTx > MaxPerTxHardCap {
		return nil, ErrInvalidMaxPerTx
	}
	if clone.Price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if len(clone.NamePrefix) > MaxNamePrefix {
		return nil, ErrNameTooLong
	}
	if len(clone.Symbol) > MaxSymbol {
		return nil, ErrSymbolTooLong
	}
	if len(clone.URIBase) > MaxURIBase {
		return nil, ErrURITooLong
	}
	if clone.DeliveryFeeMin.Sign() < 0 || clone.DeliveryFeeMax.Cmp(clone.DeliveryFeeMin) < 0 {
		return nil, ErrInvalidFeeBand
	}
	if clone.MaxFigureID == 0 {
		return nil, ErrInvalidFigureCap
	}
	if clone.Minted > clone.MaxSupply {
		return nil, fmt.Errorf("boxmint: minted count exceeds max supply")
	}
	return clone, nil
}

// DeliveryRecord is the idempotency marker for one paid delivery request. Its
// existence at the derived address is the sole on-chain evidence the order was
// paid; creating it twice for the same identifier fails.
type DeliveryRecord struct {
	Address    [32]byte
	DeliveryID uint64
	Payer      [20]byte
	FeePaid    *big.Int
	Deposit    *big.Int
	ItemCount  uint32
	CreatedAt  int64
	Bump       byte
}

// Clone returns a deep copy of the delivery record.
func (d *DeliveryRecord) Clone() *DeliveryRecord {
	if d == nil {
		return nil
	}
	clone := *d
	clone.FeePaid = cloneBigInt(d.FeePaid)
	clone.Deposit = cloneBigInt(d.Deposit)
	return &clone
}

// PendingReveal is the durable commit half of the two-phase open protocol.
// It must never outlive its box: finalize verifies custody and deletes it.
type PendingReveal struct {
	Owner [20]byte
	Box   [32]byte
	// Vault is the custody address captured at start time; treasury rotation
	// between the two phases must not strand the box.
	Vault     [20]byte
	Figures   [RevealFigureCount][32]byte
	CreatedAt int64
	Bump      byte
}

// Clone returns a copy of the pending reveal record.
func (p *PendingReveal) Clone() *PendingReveal {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// ReceiptKind selects the reference domain for batched receipt mints.
type ReceiptKind uint8

const (
	ReceiptKindBox ReceiptKind = iota + 1
	ReceiptKindFigure
)

// Valid reports whether the kind is a supported receipt domain.
func (k ReceiptKind) Valid() bool {
	return k == ReceiptKindBox || k == ReceiptKindFigure
}

func (k ReceiptKind) String() string {
	switch k {
	case ReceiptKindBox:
		return "box"
	case ReceiptKindFigure:
		return "figure"
	default:
		return "unknown"
	}
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
