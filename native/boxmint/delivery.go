package boxmint

import (
	"encoding/hex"
	"math/big"
	"strings"

	"boxchain/observability/metrics"
)

// moduleVault is the 20-byte account that escrows delivery record deposits
// until the admin closes the record. It is addressed by the config record's
// own derived address, so no private key can ever spend from it directly.
func moduleVault(cfg *Config) [20]byte {
	var out [20]byte
	copy(out[:], cfg.Address[:20])
	return out
}

// checkDeliveryVoucher verifies the cosigner-signed quote binds exactly this
// delivery request and has not expired.
func (e *Engine) checkDeliveryVoucher(cfg *Config, voucher DeliveryVoucher, sig []byte, deliveryID uint64, payer [20]byte, fee *big.Int, items [][32]byte) error {
	if voucher.ChainID != ChainID {
		return ErrVoucherMismatch
	}
	if voucher.DeliveryID != deliveryID {
		return ErrVoucherMismatch
	}
	if !strings.EqualFold(strings.TrimSpace(voucher.Payer), hex.EncodeToString(payer[:])) {
		return ErrVoucherMismatch
	}
	voucherFee, err := voucher.FeeBig()
	if err != nil {
		return ErrVoucherMismatch
	}
	if fee == nil || voucherFee.Cmp(fee) != 0 {
		return ErrVoucherMismatch
	}
	if len(voucher.Items) != len(items) {
		return ErrVoucherMismatch
	}
	for i, item := range items {
		if !strings.EqualFold(strings.TrimSpace(voucher.Items[i]), hex.EncodeToString(item[:])) {
			return ErrVoucherMismatch
		}
	}
	if voucher.Expiry < e.now() {
		return ErrVoucherExpired
	}
	signer, err := recoverVoucherSigner(voucher, sig)
	if err != nil {
		return err
	}
	if signer != cfg.Cosigner {
		return ErrVoucherSigner
	}
	return nil
}

// Deliver records a physical fulfilment request: captures the quoted fee and
// the record deposit, burns each redeemed asset and mints a receipt in its
// place, then persists the delivery record. The record's existence is the
// idempotency marker; replaying the same delivery identifier fails before any
// value moves.
func (e *Engine) Deliver(payer [20]byte, deliveryID uint64, fee *big.Int, items [][32]byte, receiptBumps []byte, recordBump byte, voucher DeliveryVoucher, sig []byte) (*DeliveryRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fr, err := e.begin()
	if err != nil {
		return nil, err
	}
	defer fr.Discard()
	st := fr.State()
	adapter := NewRegistryAdapter(fr.Registry())

	cfg, err := loadConfig(st)
	if err != nil {
		return nil, err
	}
	if len(items) < 1 || len(items) > MaxDeliveryItems {
		return nil, ErrTooManyItems
	}
	if len(receiptBumps) != len(items) {
		return nil, ErrTooManyItems
	}
	if err := e.checkDeliveryVoucher(cfg, voucher, sig, deliveryID, payer, fee, items); err != nil {
		return nil, err
	}
	// The band bounds what a compromised or buggy client can charge while
	// still letting the backend quote dynamic prices inside it.
	if fee.Cmp(cfg.DeliveryFeeMin) < 0 || fee.Cmp(cfg.DeliveryFeeMax) > 0 {
		return nil, ErrFeeOutOfBand
	}

	recordAddr := DeriveAddress(SeedDelivery, DeliverySeedParts(deliveryID), recordBump)
	if _, ok := st.DeliveryGet(recordAddr); ok {
		return nil, ErrDeliveryExists
	}

	if err := transferFunds(st, payer, cfg.Treasury, fee); err != nil {
		return nil, err
	}
	if err := transferFunds(st, payer, moduleVault(cfg), cfg.RecordDeposit); err != nil {
		return nil, err
	}

	for i, item := range items {
		asset, ok := adapter.Lookup(item)
		if !ok || asset.Owner != payer {
			return nil, ErrNotGenuine
		}
		var kind ReceiptKind
		var receiptBase string
		switch asset.Collection {
		case cfg.BoxCollection:
			if !uriMatchesTemplate(asset.URI, cfg.URIBase) {
				return nil, ErrNotGenuine
			}
			kind = ReceiptKindBox
			receiptBase = cfg.ReceiptBoxURIBase
		case cfg.FigureCollection:
			if !uriMatchesTemplate(asset.URI, cfg.FigureURIBase) {
				return nil, ErrNotGenuine
			}
			kind = ReceiptKindFigure
			receiptBase = cfg.ReceiptFigureURIBase
		default:
			return nil, ErrNotGenuine
		}
		if err := adapter.Burn(cfg.Address, item, asset.Collection); err != nil {
			return nil, err
		}
		// Receipts are keyed by the burned asset's address: redeeming the
		// same item twice is structurally impossible.
		target := DeriveAddress(SeedReceipt, [][]byte{{byte(kind)}, item[:]}, receiptBumps[i])
		if adapter.Occupied(target) {
			return nil, ErrAddressInUse
		}
		name := SequenceName(receiptNamePrefix, deliveryID)
		uri := SequenceURI(receiptBase, deliveryID)
		if err := adapter.Create(cfg.Address, target, cfg.ReceiptCollection, payer, name, uri); err != nil {
			return nil, err
		}
	}

	record := &DeliveryRecord{
		Address:    recordAddr,
		DeliveryID: deliveryID,
		Payer:      payer,
		FeePaid:    cloneBigInt(fee),
		Deposit:    cloneBigInt(cfg.RecordDeposit),
		ItemCount:  uint32(len(items)),
		CreatedAt:  e.now(),
		Bump:       recordBump,
	}
	if err := st.DeliveryPut(record); err != nil {
		return nil, err
	}
	if err := fr.Commit(); err != nil {
		return nil, err
	}
	metrics.Boxmint().DeliveryInc()
	e.emit(NewDeliveredEvent(record))
	return record.Clone(), nil
}

// CloseDelivery reclaims a processed delivery record: the escrowed deposit
// drains to the treasury and the record is deallocated. Admin only.
func (e *Engine) CloseDelivery(caller [20]byte, deliveryID uint64, recordBump byte) error {
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
	recordAddr := DeriveAddress(SeedDelivery, DeliverySeedParts(deliveryID), recordBump)
	record, ok := st.DeliveryGet(recordAddr)
	if !ok {
		return ErrDeliveryNotFound
	}
	if err := VerifyDerived(record.Address, SeedDelivery, DeliverySeedParts(record.DeliveryID), record.Bump); err != nil {
		return err
	}
	if err := transferFunds(st, moduleVault(cfg), cfg.Treasury, record.Deposit); err != nil {
		return err
	}
	if err := st.DeliveryDelete(recordAddr); err != nil {
		return err
	}
	if err := fr.Commit(); err != nil {
		return err
	}
	e.emit(NewDeliveryClosedEvent(record))
	return nil
}

// MintReceipts batch-mints receipt assets referencing boxes or figures, used
// for delivery receipts and in-person claim flows. Admin only; reference ids
// are range-checked and must be unique within the call.
func (e *Engine) MintReceipts(caller, owner [20]byte, kind ReceiptKind, refIDs []uint64, bumps []byte) error {
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
	if caller != cfg.Admin {
		return ErrUnauthorized
	}
	if !kind.Valid() {
		return ErrVoucherMismatch
	}
	if len(refIDs) < 1 || len(refIDs) > MaxPerTxHardCap || len(bumps) != len(refIDs) {
		return ErrInvalidQuantity
	}
	maxRef := uint64(cfg.MaxSupply)
	receiptBase := cfg.ReceiptBoxURIBase
	if kind == ReceiptKindFigure {
		maxRef = cfg.MaxFigureID
		receiptBase = cfg.ReceiptFigureURIBase
	}
	seen := make(map[uint64]struct{}, len(refIDs))
	for _, id := range refIDs {
		if id < 1 || id > maxRef {
			return ErrFigureIDRange
		}
		if _, dup := seen[id]; dup {
			return ErrDuplicateFigureID
		}
		seen[id] = struct{}{}
	}

	for i, id := range refIDs {
		target := DeriveAddress(SeedReceipt, ReceiptSeedParts(kind, id), bumps[i])
		if adapter.Occupied(target) {
			return ErrAddressInUse
		}
		name := SequenceName(receiptNamePrefix, id)
		uri := SequenceURI(receiptBase, id)
		if err := adapter.Create(cfg.Address, target, cfg.ReceiptCollection, owner, name, uri); err != nil {
			return err
		}
	}
	if err := fr.Commit(); err != nil {
		return err
	}
	metrics.Boxmint().ReceiptsAdd(float64(len(refIDs)))
	e.emit(NewReceiptsMintedEvent(kind, refIDs, owner))
	return nil
}
