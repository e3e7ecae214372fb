package boxmint

import (
	"encoding/hex"
	"strings"

	"boxchain/native/assets"
	"boxchain/observability/metrics"
)

const (
	figureNamePrefix  = "Figure"
	receiptNamePrefix = "Receipt"
)

func validateFigureIDs(cfg *Config, ids [RevealFigureCount]uint64) error {
	for i, id := range ids {
		if id < 1 || id > cfg.MaxFigureID {
			return ErrFigureIDRange
		}
		for j := 0; j < i; j++ {
			if ids[j] == id {
				return ErrDuplicateFigureID
			}
		}
	}
	return nil
}

// uriMatchesTemplate reports whether an asset URI could have been generated
// from the given base: equal in shared-metadata mode, otherwise under the
// base with a numbered json leaf.
func uriMatchesTemplate(uri, base string) bool {
	if strings.HasSuffix(base, ".json") {
		return uri == base
	}
	trimmed := strings.TrimSuffix(base, "/")
	return strings.HasPrefix(uri, trimmed+"/") && strings.HasSuffix(uri, ".json")
}

// verifyCollectionItem checks the presented asset is genuinely one of ours:
// present in the registry, held by the expected owner, a member of the
// expected collection and carrying a URI shaped by our template. This defends
// against a holder substituting an arbitrary externally-owned asset.
func verifyCollectionItem(adapter *RegistryAdapter, addr [32]byte, owner [20]byte, collection [32]byte, uriBase string) (*assets.Asset, error) {
	asset, ok := adapter.Lookup(addr)
	if !ok {
		return nil, ErrNotGenuine
	}
	if asset.Owner != owner {
		return nil, ErrNotGenuine
	}
	if asset.Collection != collection {
		return nil, ErrNotGenuine
	}
	if !uriMatchesTemplate(asset.URI, uriBase) {
		return nil, ErrNotGenuine
	}
	return asset, nil
}

// checkRevealVoucher verifies the cosigner-signed voucher binds exactly this
// open request and has not expired.
func (e *Engine) checkRevealVoucher(cfg *Config, voucher RevealVoucher, sig []byte, box [32]byte, holder [20]byte, figureIDs [RevealFigureCount]uint64) error {
	if voucher.ChainID != ChainID {
		return ErrVoucherMismatch
	}
	if !strings.EqualFold(strings.TrimSpace(voucher.Box), hex.EncodeToString(box[:])) {
		return ErrVoucherMismatch
	}
	if !strings.EqualFold(strings.TrimSpace(voucher.Owner), hex.EncodeToString(holder[:])) {
		return ErrVoucherMismatch
	}
	if voucher.FigureIDs != figureIDs {
		return ErrVoucherMismatch
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

// OpenBox burns the holder's box and mints the three revealed figures in one
// frame. The cosigner voucher supplies the figure identities; the ledger only
// validates structural correctness and binds them to the irreversible burn.
func (e *Engine) OpenBox(holder [20]byte, box [32]byte, figureIDs [RevealFigureCount]uint64, figureBumps [RevealFigureCount]byte, voucher RevealVoucher, sig []byte) error {
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
	if err := e.checkRevealVoucher(cfg, voucher, sig, box, holder, figureIDs); err != nil {
		return err
	}
	if err := validateFigureIDs(cfg, figureIDs); err != nil {
		return err
	}
	if _, err := verifyCollectionItem(adapter, box, holder, cfg.BoxCollection, cfg.URIBase); err != nil {
		return err
	}

	if err := adapter.Burn(cfg.Address, box, cfg.BoxCollection); err != nil {
		return err
	}
	for i, id := range figureIDs {
		target := DeriveAddress(SeedFigure, IDSeedParts(id), figureBumps[i])
		if adapter.Occupied(target) {
			return ErrAddressInUse
		}
		name := SequenceName(figureNamePrefix, id)
		uri := SequenceURI(cfg.FigureURIBase, id)
		if err := adapter.Create(cfg.Address, target, cfg.FigureCollection, holder, name, uri); err != nil {
			return err
		}
	}
	if err := fr.Commit(); err != nil {
		return err
	}
	metrics.Boxmint().OpenedInc()
	e.emit(NewOpenedEvent(holder, box, figureIDs))
	return nil
}

// StartOpenBox is the commit half of the two-phase reveal: the box moves into
// vault custody, three blank placeholder figures are created under program
// authority, and a single-use pending record binds them together. The
// finalize half may arrive from a different party at arbitrary time
// separation.
func (e *Engine) StartOpenBox(holder [20]byte, box [32]byte, placeholderBumps [RevealFigureCount]byte, recordBump byte) (*PendingReveal, error) {
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
	if _, ok := st.PendingGet(box); ok {
		return nil, ErrPendingExists
	}
	if _, err := verifyCollectionItem(adapter, box, holder, cfg.BoxCollection, cfg.URIBase); err != nil {
		return nil, err
	}

	// Custody handover happens inside this frame, authorised by the holder,
	// so the pending record can never exist without the vault holding the box.
	if err := adapter.Transfer(cfg.Address, box, cfg.BoxCollection, holder, cfg.Treasury); err != nil {
		return nil, err
	}

	pending := &PendingReveal{
		Owner:     holder,
		Box:       box,
		Vault:     cfg.Treasury,
		CreatedAt: e.now(),
		Bump:      recordBump,
	}
	for i := 0; i < RevealFigureCount; i++ {
		parts := append(PendingSeedParts(box), []byte{byte(i)})
		target := DeriveAddress(SeedPending, parts, placeholderBumps[i])
		if adapter.Occupied(target) {
			return nil, ErrAddressInUse
		}
		if err := adapter.Create(cfg.Address, target, [32]byte{}, cfg.Treasury, "", ""); err != nil {
			return nil, err
		}
		pending.Figures[i] = target
	}
	if err := st.PendingPut(pending); err != nil {
		return nil, err
	}
	if err := fr.Commit(); err != nil {
		return nil, err
	}
	metrics.Boxmint().RevealStartedInc()
	e.emit(NewRevealStartedEvent(pending))
	return pending.Clone(), nil
}

// FinalizeOpenBox is the admin half of the two-phase reveal: it burns the
// vault-custodied box, completes the placeholders with the revealed figure
// metadata and collection membership, transfers them to the original owner
// and consumes the pending record. A second finalize fails on the record
// lookup.
func (e *Engine) FinalizeOpenBox(caller [20]byte, box [32]byte, owner [20]byte, figureIDs [RevealFigureCount]uint64, placeholders [RevealFigureCount][32]byte) error {
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
	pending, ok := st.PendingGet(box)
	if !ok {
		return ErrPendingNotFound
	}
	if pending.Owner != owner || pending.Figures != placeholders {
		return ErrPendingMismatch
	}
	if err := validateFigureIDs(cfg, figureIDs); err != nil {
		return err
	}

	// The box must still be in the vault that took custody at start time;
	// the pending record never outlives its box.
	boxAsset, ok := adapter.Lookup(box)
	if !ok || boxAsset.Owner != pending.Vault || boxAsset.Collection != cfg.BoxCollection {
		return ErrNotGenuine
	}
	if err := adapter.Burn(cfg.Address, box, cfg.BoxCollection); err != nil {
		return err
	}

	for i, id := range figureIDs {
		name := SequenceName(figureNamePrefix, id)
		uri := SequenceURI(cfg.FigureURIBase, id)
		// One update call sets metadata and grants collection membership;
		// the registry's lighter update path cannot add membership.
		if err := adapter.Update(cfg.Address, placeholders[i], cfg.FigureCollection, name, uri); err != nil {
			return err
		}
		if err := adapter.Transfer(cfg.Address, placeholders[i], cfg.FigureCollection, [20]byte{}, pending.Owner); err != nil {
			return err
		}
	}
	if err := st.PendingDelete(box); err != nil {
		return err
	}
	if err := fr.Commit(); err != nil {
		return err
	}
	metrics.Boxmint().RevealFinalizedInc()
	e.emit(NewRevealFinalizedEvent(pending, figureIDs))
	return nil
}
