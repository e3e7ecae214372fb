package boxmint

import (
	"fmt"
	"math/big"
	"math/bits"
	"sync"
	"time"

	"boxchain/core/events"
	"boxchain/core/types"
	"boxchain/native/assets"
	"boxchain/observability/metrics"
)

// LedgerState is the persistence surface the engine needs. The state manager
// implements it over the key-value store.
type LedgerState interface {
	ConfigPut(*Config) error
	ConfigGet() (*Config, bool)
	DeliveryPut(*DeliveryRecord) error
	DeliveryGet(addr [32]byte) (*DeliveryRecord, bool)
	DeliveryDelete(addr [32]byte) error
	PendingPut(*PendingReveal) error
	PendingGet(box [32]byte) (*PendingReveal, bool)
	PendingDelete(box [32]byte) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Frame is one all-or-nothing unit of work. Every engine entry point runs
// inside a fresh frame: Commit publishes the buffered mutations, Discard
// drops them, so a failure partway through a batch leaves no partial effects.
type Frame interface {
	State() LedgerState
	Registry() assets.Executor
	Commit() error
	Discard()
}

// Framer opens execution frames over the shared store.
type Framer interface {
	Begin() (Frame, error)
}

// Engine drives the box sale, reveal and delivery flows against the
// configuration ledger and the external asset registry. Entry points are
// serialized: frames over the same records resolve by whichever runs first,
// so racing batches can never both consume the last of the supply.
type Engine struct {
	mu      sync.Mutex
	frames  Framer
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates an engine with a no-op emitter. Callers can override the
// emitter via SetEmitter.
func NewEngine(frames Framer) *Engine {
	return &Engine{
		frames:  frames,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(ledgerEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) begin() (Frame, error) {
	if e == nil || e.frames == nil {
		return nil, fmt.Errorf("boxmint: frames not configured")
	}
	return e.frames.Begin()
}

// checkedAdd rejects wrapping instead of silently truncating a counter.
func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrMathOverflow
	}
	return sum, nil
}

func loadConfig(st LedgerState) (*Config, error) {
	cfg, ok := st.ConfigGet()
	if !ok {
		return nil, ErrNotInitialized
	}
	return cfg, nil
}

// transferFunds moves native currency between accounts with an explicit
// balance check. A zero amount is a no-op.
func transferFunds(st LedgerState, from, to [20]byte, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("boxmint: negative transfer amount")
	}
	fromAcc, err := st.GetAccount(from[:])
	if err != nil {
		return err
	}
	fromAcc = fromAcc.EnsureBalances()
	if fromAcc.Balance.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	// A self-transfer settles to the same balance; writing both legs from
	// separately loaded copies would let the credit overwrite the debit.
	if from == to {
		return nil
	}
	toAcc, err := st.GetAccount(to[:])
	if err != nil {
		return err
	}
	toAcc = toAcc.EnsureBalances()
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	if err := st.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return st.PutAccount(to[:], toAcc)
}

// InitializeParams carries the one-time ledger configuration.
type InitializeParams struct {
	Admin    [20]byte
	Treasury [20]byte
	Cosigner [20]byte

	BoxCollection     [32]byte
	FigureCollection  [32]byte
	ReceiptCollection [32]byte

	Price     *big.Int
	MaxSupply uint32
	MaxPerTx  uint8

	NamePrefix string
	Symbol     string
	URIBase    string

	DeliveryFeeMin *big.Int
	DeliveryFeeMax *big.Int
	RecordDeposit  *big.Int

	MaxFigureID uint64

	Bump byte
}

// Initialize creates the singleton configuration record. Re-initialization
// fails; the record is never deleted.
func (e *Engine) Initialize(params InitializeParams) (*Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fr, err := e.begin()
	if err != nil {
		return nil, err
	}
	defer fr.Discard()
	st := fr.State()

	if _, ok := st.ConfigGet(); ok {
		return nil, ErrAlreadyInitialized
	}
	figureBase, err := FigureURIBase(params.URIBase)
	if err != nil {
		return nil, err
	}
	receiptBoxBase, err := ReceiptURIBase(params.URIBase, ReceiptKindBox)
	if err != nil {
		return nil, err
	}
	receiptFigureBase, err := ReceiptURIBase(params.URIBase, ReceiptKindFigure)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Address:              DeriveAddress(SeedConfig, nil, params.Bump),
		Admin:                params.Admin,
		Treasury:             params.Treasury,
		Cosigner:             params.Cosigner,
		BoxCollection:        params.BoxCollection,
		FigureCollection:     params.FigureCollection,
		ReceiptCollection:    params.ReceiptCollection,
		Price:                cloneBigInt(params.Price),
		MaxSupply:            params.MaxSupply,
		MaxPerTx:             params.MaxPerTx,
		Minted:               0,
		NamePrefix:           params.NamePrefix,
		Symbol:               params.Symbol,
		URIBase:              params.URIBase,
		FigureURIBase:        figureBase,
		ReceiptBoxURIBase:    receiptBoxBase,
		ReceiptFigureURIBase: receiptFigureBase,
		DeliveryFeeMin:       cloneBigInt(params.DeliveryFeeMin),
		DeliveryFeeMax:       cloneBigInt(params.DeliveryFeeMax),
		RecordDeposit:        cloneBigInt(params.RecordDeposit),
		MaxFigureID:          params.MaxFigureID,
		Bump:                 params.Bump,
	}
	sanitized, err := SanitizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := st.ConfigPut(sanitized); err != nil {
		return nil, err
	}
	if err := fr.Commit(); err != nil {
		return nil, err
	}
	e.emit(NewInitializedEvent(sanitized))
	return sanitized.Clone(), nil
}

// SetTreasury replaces the sale-proceeds recipient. Admin only.
func (e *Engine) SetTreasury(caller, treasury [20]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	fr, err := e.begin()
	if err != nil {
		return err
	}
	defer fr.Discard()
	st := fr.State()

	cfg, err := loadConfig(st)
	if err != nil {
		return err
	}
	if caller != cfg.Admin {
		return ErrUnauthorized
	}
	cfg.Treasury = treasury
	if err := st.ConfigPut(cfg); err != nil {
		return err
	}
	if err := fr.Commit(); err != nil {
		return err
	}
	e.emit(NewTreasuryUpdatedEvent(cfg))
	return nil
}

// Config returns a copy of the current configuration record.
func (e *Engine) Config() (*Config, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fr, err := e.begin()
	if err != nil {
		return nil, err
	}
	defer fr.Discard()
	return loadConfig(fr.State())
}

// MintBoxes sells quantity boxes to the buyer: captures payment, creates one
// asset per pre-derived target address, then advances the supply counter.
// Any failure discards the whole frame; the counter never records partial
// progress.
func (e *Engine) MintBoxes(buyer [20]byte, quantity uint8, nonce uint64, bumps []byte, targets [][32]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	fr, err := e.begin()
	if err != nil {
		return err
	}
	defer fr.Discard()
	st := fr.State()
	adapter := NewRegistryAdapter(fr.Registry())

	cfg, err := loadConfig(st)
	if err != nil {
		return err
	}
	if quantity < 1 || quantity > cfg.MaxPerTx || quantity > MaxPerTxHardCap {
		return ErrInvalidQuantity
	}
	if len(targets) != int(quantity) || len(bumps) != int(quantity) {
		return ErrInvalidQuantity
	}
	newTotal, err := checkedAdd(uint64(cfg.Minted), uint64(quantity))
	if err != nil {
		return err
	}
	if newTotal > uint64(cfg.MaxSupply) {
		return ErrSoldOut
	}

	cost := new(big.Int).Mul(cfg.Price, big.NewInt(int64(quantity)))
	if cost.Sign() > 0 {
		if err := transferFunds(st, buyer, cfg.Treasury, cost); err != nil {
			return err
		}
	}

	startSeq := uint64(cfg.Minted) + 1
	for i := uint32(0); i < uint32(quantity); i++ {
		target := targets[i]
		if err := VerifyDerived(target, SeedBox, BoxSeedParts(nonce, i), bumps[i]); err != nil {
			return err
		}
		if adapter.Occupied(target) {
			return ErrAddressInUse
		}
		seq := startSeq + uint64(i)
		name := SequenceName(cfg.NamePrefix, seq)
		uri := SequenceURI(cfg.URIBase, seq)
		if err := adapter.Create(cfg.Address, target, cfg.BoxCollection, buyer, name, uri); err != nil {
			return err
		}
	}

	cfg.Minted = uint32(newTotal)
	if err := st.ConfigPut(cfg); err != nil {
		return err
	}
	if err := fr.Commit(); err != nil {
		return err
	}
	metrics.Boxmint().MintedAdd(float64(quantity))
	e.emit(NewMintedEvent(cfg, buyer, quantity, cost))
	return nil
}
