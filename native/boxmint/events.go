package boxmint

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"boxchain/core/types"
)

const (
	EventTypeInitialized     = "boxmint.initialized"
	EventTypeTreasuryUpdated = "boxmint.treasury_updated"
	EventTypeMinted          = "boxmint.minted"
	EventTypeOpened          = "boxmint.opened"
	EventTypeRevealStarted   = "boxmint.reveal.started"
	EventTypeRevealFinalized = "boxmint.reveal.finalized"
	EventTypeDelivered       = "boxmint.delivered"
	EventTypeDeliveryClosed  = "boxmint.delivery_closed"
	EventTypeReceiptsMinted  = "boxmint.receipts_minted"
)

type ledgerEvent struct {
	evt *types.Event
}

func (e ledgerEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e ledgerEvent) Event() *types.Event { return e.evt }

// NewInitializedEvent returns the canonical payload for ledger creation.
func NewInitializedEvent(cfg *Config) *types.Event {
	attrs := make(map[string]string)
	if cfg != nil {
		attrs["config"] = hex.EncodeToString(cfg.Address[:])
		attrs["admin"] = hex.EncodeToString(cfg.Admin[:])
		attrs["treasury"] = hex.EncodeToString(cfg.Treasury[:])
		attrs["cosigner"] = hex.EncodeToString(cfg.Cosigner[:])
		attrs["price"] = cfg.Price.String()
		attrs["maxSupply"] = strconv.FormatUint(uint64(cfg.MaxSupply), 10)
		attrs["maxPerTx"] = strconv.FormatUint(uint64(cfg.MaxPerTx), 10)
	}
	return &types.Event{Type: EventTypeInitialized, Attributes: attrs}
}

// NewTreasuryUpdatedEvent returns the payload emitted when the admin replaces
// the treasury.
func NewTreasuryUpdatedEvent(cfg *Config) *types.Event {
	attrs := make(map[string]string)
	if cfg != nil {
		attrs["config"] = hex.EncodeToString(cfg.Address[:])
		attrs["treasury"] = hex.EncodeToString(cfg.Treasury[:])
	}
	return &types.Event{Type: EventTypeTreasuryUpdated, Attributes: attrs}
}

// NewMintedEvent returns the payload for a completed box sale batch.
func NewMintedEvent(cfg *Config, buyer [20]byte, quantity uint8, cost *big.Int) *types.Event {
	attrs := map[string]string{
		"buyer":    hex.EncodeToString(buyer[:]),
		"quantity": strconv.FormatUint(uint64(quantity), 10),
	}
	if cost != nil {
		attrs["cost"] = cost.String()
	}
	if cfg != nil {
		attrs["minted"] = strconv.FormatUint(uint64(cfg.Minted), 10)
	}
	return &types.Event{Type: EventTypeMinted, Attributes: attrs}
}

// NewOpenedEvent returns the payload for a single-phase box open.
func NewOpenedEvent(holder [20]byte, box [32]byte, figureIDs [RevealFigureCount]uint64) *types.Event {
	attrs := map[string]string{
		"holder": hex.EncodeToString(holder[:]),
		"box":    hex.EncodeToString(box[:]),
	}
	for i, id := range figureIDs {
		attrs["figure"+strconv.Itoa(i)] = strconv.FormatUint(id, 10)
	}
	return &types.Event{Type: EventTypeOpened, Attributes: attrs}
}

// NewRevealStartedEvent returns the payload emitted when a holder commits to
// opening a box.
func NewRevealStartedEvent(p *PendingReveal) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["owner"] = hex.EncodeToString(p.Owner[:])
		attrs["box"] = hex.EncodeToString(p.Box[:])
		attrs["vault"] = hex.EncodeToString(p.Vault[:])
		for i, fig := range p.Figures {
			attrs["placeholder"+strconv.Itoa(i)] = hex.EncodeToString(fig[:])
		}
		attrs["createdAt"] = strconv.FormatInt(p.CreatedAt, 10)
	}
	return &types.Event{Type: EventTypeRevealStarted, Attributes: attrs}
}

// NewRevealFinalizedEvent returns the payload emitted when the admin assigns
// figure identities and releases them to the owner.
func NewRevealFinalizedEvent(p *PendingReveal, figureIDs [RevealFigureCount]uint64) *types.Event {
	attrs := make(map[string]string)
	if p != nil {
		attrs["owner"] = hex.EncodeToString(p.Owner[:])
		attrs["box"] = hex.EncodeToString(p.Box[:])
	}
	for i, id := range figureIDs {
		attrs["figure"+strconv.Itoa(i)] = strconv.FormatUint(id, 10)
	}
	return &types.Event{Type: EventTypeRevealFinalized, Attributes: attrs}
}

// NewDeliveredEvent returns the payload for a recorded delivery request.
func NewDeliveredEvent(rec *DeliveryRecord) *types.Event {
	attrs := make(map[string]string)
	if rec != nil {
		attrs["deliveryId"] = strconv.FormatUint(rec.DeliveryID, 10)
		attrs["payer"] = hex.EncodeToString(rec.Payer[:])
		attrs["fee"] = rec.FeePaid.String()
		attrs["items"] = strconv.FormatUint(uint64(rec.ItemCount), 10)
	}
	return &types.Event{Type: EventTypeDelivered, Attributes: attrs}
}

// NewDeliveryClosedEvent returns the payload emitted when the admin reclaims
// a processed delivery record.
func NewDeliveryClosedEvent(rec *DeliveryRecord) *types.Event {
	attrs := make(map[string]string)
	if rec != nil {
		attrs["deliveryId"] = strconv.FormatUint(rec.DeliveryID, 10)
		attrs["deposit"] = rec.Deposit.String()
	}
	return &types.Event{Type: EventTypeDeliveryClosed, Attributes: attrs}
}

// NewReceiptsMintedEvent returns the payload for a batch receipt mint.
func NewReceiptsMintedEvent(kind ReceiptKind, refIDs []uint64, owner [20]byte) *types.Event {
	attrs := map[string]string{
		"kind":  kind.String(),
		"count": strconv.Itoa(len(refIDs)),
		"owner": hex.EncodeToString(owner[:]),
	}
	return &types.Event{Type: EventTypeReceiptsMinted, Attributes: attrs}
}
