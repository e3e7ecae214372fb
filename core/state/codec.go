package state

import (
	"math/big"

	"boxchain/core/types"
	"boxchain/native/assets"
	"boxchain/native/boxmint"
)

// Persisted record shapes. RLP has no signed integers, so timestamps are
// stored as uint64 and converted at the boundary.

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

func newStoredAccount(acc *types.Account) *storedAccount {
	acc = acc.EnsureBalances()
	return &storedAccount{Nonce: acc.Nonce, Balance: acc.Balance}
}

func (s *storedAccount) toAccount() *types.Account {
	return (&types.Account{Nonce: s.Nonce, Balance: s.Balance}).EnsureBalances()
}

type storedAsset struct {
	Address    [32]byte
	Owner      [20]byte
	Collection [32]byte
	Authority  [32]byte
	Name       string
	URI        string
}

func newStoredAsset(a *assets.Asset) *storedAsset {
	return &storedAsset{
		Address:    a.Address,
		Owner:      a.Owner,
		Collection: a.Collection,
		Authority:  a.Authority,
		Name:       a.Name,
		URI:        a.URI,
	}
}

func (s *storedAsset) toAsset() *assets.Asset {
	return &assets.Asset{
		Address:    s.Address,
		Owner:      s.Owner,
		Collection: s.Collection,
		Authority:  s.Authority,
		Name:       s.Name,
		URI:        s.URI,
	}
}

type storedCollection struct {
	ID        [32]byte
	Authority [32]byte
	Name      string
}

func newStoredCollection(c *assets.Collection) *storedCollection {
	return &storedCollection{ID: c.ID, Authority: c.Authority, Name: c.Name}
}

func (s *storedCollection) toCollection() *assets.Collection {
	return &assets.Collection{ID: s.ID, Authority: s.Authority, Name: s.Name}
}

type storedConfig struct {
	Address              [32]byte
	Admin                [20]byte
	Treasury             [20]byte
	Cosigner             [20]byte
	BoxCollection        [32]byte
	FigureCollection     [32]byte
	ReceiptCollection    [32]byte
	Price                *big.Int
	MaxSupply            uint32
	MaxPerTx             uint8
	Minted               uint32
	NamePrefix           string
	Symbol               string
	URIBase              string
	FigureURIBase        string
	ReceiptBoxURIBase    string
	ReceiptFigureURIBase string
	DeliveryFeeMin       *big.Int
	DeliveryFeeMax       *big.Int
	RecordDeposit        *big.Int
	MaxFigureID          uint64
	Bump                 uint8
}

func newStoredConfig(cfg *boxmint.Config) *storedConfig {
	return &storedConfig{
		Address:              cfg.Address,
		Admin:                cfg.Admin,
		Treasury:             cfg.Treasury,
		Cosigner:             cfg.Cosigner,
		BoxCollection:        cfg.BoxCollection,
		FigureCollection:     cfg.FigureCollection,
		ReceiptCollection:    cfg.ReceiptCollection,
		Price:                cfg.Price,
		MaxSupply:            cfg.MaxSupply,
		MaxPerTx:             cfg.MaxPerTx,
		Minted:               cfg.Minted,
		NamePrefix:           cfg.NamePrefix,
		Symbol:               cfg.Symbol,
		URIBase:              cfg.URIBase,
		FigureURIBase:        cfg.FigureURIBase,
		ReceiptBoxURIBase:    cfg.ReceiptBoxURIBase,
		ReceiptFigureURIBase: cfg.ReceiptFigureURIBase,
		DeliveryFeeMin:       cfg.DeliveryFeeMin,
		DeliveryFeeMax:       cfg.DeliveryFeeMax,
		RecordDeposit:        cfg.RecordDeposit,
		MaxFigureID:          cfg.MaxFigureID,
		Bump:                 cfg.Bump,
	}
}

func (s *storedConfig) toConfig() *boxmint.Config {
	return (&boxmint.Config{
		Address:              s.Address,
		Admin:                s.Admin,
		Treasury:             s.Treasury,
		Cosigner:             s.Cosigner,
		BoxCollection:        s.BoxCollection,
		FigureCollection:     s.FigureCollection,
		ReceiptCollection:    s.ReceiptCollection,
		Price:                s.Price,
		MaxSupply:            s.MaxSupply,
		MaxPerTx:             s.MaxPerTx,
		Minted:               s.Minted,
		NamePrefix:           s.NamePrefix,
		Symbol:               s.Symbol,
		URIBase:              s.URIBase,
		FigureURIBase:        s.FigureURIBase,
		ReceiptBoxURIBase:    s.ReceiptBoxURIBase,
		ReceiptFigureURIBase: s.ReceiptFigureURIBase,
		DeliveryFeeMin:       s.DeliveryFeeMin,
		DeliveryFeeMax:       s.DeliveryFeeMax,
		RecordDeposit:        s.RecordDeposit,
		MaxFigureID:          s.MaxFigureID,
		Bump:                 s.Bump,
	}).Clone()
}

type storedDelivery struct {
	Address    [32]byte
	DeliveryID uint64
	Payer      [20]byte
	FeePaid    *big.Int
	Deposit    *big.Int
	ItemCount  uint32
	CreatedAt  uint64
	Bump       uint8
}

func newStoredDelivery(rec *boxmint.DeliveryRecord) *storedDelivery {
	return &storedDelivery{
		Address:    rec.Address,
		DeliveryID: rec.DeliveryID,
		Payer:      rec.Payer,
		FeePaid:    rec.FeePaid,
		Deposit:    rec.Deposit,
		ItemCount:  rec.ItemCount,
		CreatedAt:  uint64(rec.CreatedAt),
		Bump:       rec.Bump,
	}
}

func (s *storedDelivery) toDelivery() *boxmint.DeliveryRecord {
	return (&boxmint.DeliveryRecord{
		Address:    s.Address,
		DeliveryID: s.DeliveryID,
		Payer:      s.Payer,
		FeePaid:    s.FeePaid,
		Deposit:    s.Deposit,
		ItemCount:  s.ItemCount,
		CreatedAt:  int64(s.CreatedAt),
		Bump:       s.Bump,
	}).Clone()
}

type storedPending struct {
	Owner     [20]byte
	Box       [32]byte
	Vault     [20]byte
	Figures   [boxmint.RevealFigureCount][32]byte
	CreatedAt uint64
	Bump      uint8
}

func newStoredPending(p *boxmint.PendingReveal) *storedPending {
	return &storedPending{
		Owner:     p.Owner,
		Box:       p.Box,
		Vault:     p.Vault,
		Figures:   p.Figures,
		CreatedAt: uint64(p.CreatedAt),
		Bump:      p.Bump,
	}
}

func (s *storedPending) toPending() *boxmint.PendingReveal {
	return &boxmint.PendingReveal{
		Owner:     s.Owner,
		Box:       s.Box,
		Vault:     s.Vault,
		Figures:   s.Figures,
		CreatedAt: int64(s.CreatedAt),
		Bump:      s.Bump,
	}
}
