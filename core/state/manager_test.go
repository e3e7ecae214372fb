package state

import (
	"bytes"
	"math/big"
	"reflect"
	"testing"

	"boxchain/native/assets"
	"boxchain/native/boxmint"
	"boxchain/storage"
)

func ref(fill byte) [32]byte {
	var out [32]byte
	copy(out[:], bytes.Repeat([]byte{fill}, 32))
	return out
}

func addr20(fill byte) [20]byte {
	var out [20]byte
	copy(out[:], bytes.Repeat([]byte{fill}, 20))
	return out
}

func testConfig() *boxmint.Config {
	return &boxmint.Config{
		Address:              ref(0xC0),
		Admin:                addr20(0x01),
		Treasury:             addr20(0x02),
		Cosigner:             addr20(0x03),
		BoxCollection:        ref(0xB0),
		FigureCollection:     ref(0xF0),
		ReceiptCollection:    ref(0xE0),
		Price:                big.NewInt(100),
		MaxSupply:            500,
		MaxPerTx:             5,
		Minted:               12,
		NamePrefix:           "Box",
		Symbol:               "BX",
		URIBase:              "https://x/boxes/",
		FigureURIBase:        "https://x/figures/",
		ReceiptBoxURIBase:    "https://x/receipts/boxes/",
		ReceiptFigureURIBase: "https://x/receipts/figures/",
		DeliveryFeeMin:       big.NewInt(10),
		DeliveryFeeMax:       big.NewInt(50),
		RecordDeposit:        big.NewInt(5),
		MaxFigureID:          1500,
		Bump:                 0xAB,
	}
}

func TestAccountRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	addr := addr20(0x01)

	acc, err := mgr.GetAccount(addr[:])
	if err != nil {
		t.Fatalf("get missing account: %v", err)
	}
	if acc.Balance.Sign() != 0 || acc.Nonce != 0 {
		t.Fatalf("missing account not zeroed: %+v", acc)
	}

	acc.Nonce = 7
	acc.Balance = big.NewInt(12345)
	if err := mgr.PutAccount(addr[:], acc); err != nil {
		t.Fatalf("put account: %v", err)
	}
	loaded, err := mgr.GetAccount(addr[:])
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if loaded.Nonce != 7 || loaded.Balance.Cmp(big.NewInt(12345)) != 0 {
		t.Fatalf("account round trip mismatch: %+v", loaded)
	}
}

func TestAssetRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	asset := &assets.Asset{
		Address:    ref(0x10),
		Owner:      addr20(0x01),
		Collection: ref(0xB0),
		Authority:  ref(0xC0),
		Name:       "Box 1",
		URI:        "https://x/boxes/1.json",
	}
	if err := mgr.AssetPut(asset); err != nil {
		t.Fatalf("asset put: %v", err)
	}
	loaded, ok := mgr.AssetGet(asset.Address)
	if !ok {
		t.Fatalf("asset not found")
	}
	if !reflect.DeepEqual(asset, loaded) {
		t.Fatalf("asset round trip mismatch:\n%+v\n%+v", asset, loaded)
	}

	if err := mgr.AssetDelete(asset.Address); err != nil {
		t.Fatalf("asset delete: %v", err)
	}
	if _, ok := mgr.AssetGet(asset.Address); ok {
		t.Fatalf("asset survived delete")
	}
}

func TestCollectionRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	col := &assets.Collection{ID: ref(0xB0), Authority: ref(0xC0), Name: "Boxes"}
	if err := mgr.CollectionPut(col); err != nil {
		t.Fatalf("collection put: %v", err)
	}
	loaded, ok := mgr.CollectionGet(col.ID)
	if !ok {
		t.Fatalf("collection not found")
	}
	if !reflect.DeepEqual(col, loaded) {
		t.Fatalf("collection round trip mismatch")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	if _, ok := mgr.ConfigGet(); ok {
		t.Fatalf("config present before put")
	}
	cfg := testConfig()
	if err := mgr.ConfigPut(cfg); err != nil {
		t.Fatalf("config put: %v", err)
	}
	loaded, ok := mgr.ConfigGet()
	if !ok {
		t.Fatalf("config not found")
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Fatalf("config round trip mismatch:\n%+v\n%+v", cfg, loaded)
	}

	// ConfigPut revalidates; a corrupted record never reaches the store.
	bad := testConfig()
	bad.MaxSupply = 0
	if err := mgr.ConfigPut(bad); err == nil {
		t.Fatalf("expected rejection of invalid config")
	}
}

func TestDeliveryRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	rec := &boxmint.DeliveryRecord{
		Address:    ref(0xD0),
		DeliveryID: 42,
		Payer:      addr20(0x01),
		FeePaid:    big.NewInt(25),
		Deposit:    big.NewInt(5),
		ItemCount:  3,
		CreatedAt:  1_700_000_000,
		Bump:       0x03,
	}
	if err := mgr.DeliveryPut(rec); err != nil {
		t.Fatalf("delivery put: %v", err)
	}
	loaded, ok := mgr.DeliveryGet(rec.Address)
	if !ok {
		t.Fatalf("delivery not found")
	}
	if !reflect.DeepEqual(rec, loaded) {
		t.Fatalf("delivery round trip mismatch:\n%+v\n%+v", rec, loaded)
	}
	if err := mgr.DeliveryDelete(rec.Address); err != nil {
		t.Fatalf("delivery delete: %v", err)
	}
	if _, ok := mgr.DeliveryGet(rec.Address); ok {
		t.Fatalf("delivery survived delete")
	}
}

func TestPendingRoundTrip(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	pending := &boxmint.PendingReveal{
		Owner:     addr20(0x01),
		Box:       ref(0x10),
		Vault:     addr20(0x02),
		Figures:   [boxmint.RevealFigureCount][32]byte{ref(0x20), ref(0x21), ref(0x22)},
		CreatedAt: 1_700_000_000,
		Bump:      0x07,
	}
	if err := mgr.PendingPut(pending); err != nil {
		t.Fatalf("pending put: %v", err)
	}
	loaded, ok := mgr.PendingGet(pending.Box)
	if !ok {
		t.Fatalf("pending not found")
	}
	if !reflect.DeepEqual(pending, loaded) {
		t.Fatalf("pending round trip mismatch:\n%+v\n%+v", pending, loaded)
	}
	if err := mgr.PendingDelete(pending.Box); err != nil {
		t.Fatalf("pending delete: %v", err)
	}
	if _, ok := mgr.PendingGet(pending.Box); ok {
		t.Fatalf("pending survived delete")
	}
}

func TestManagerIsolatesStoredBytes(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	asset := &assets.Asset{Address: ref(0x10), Owner: addr20(0x01), Name: "Box 1"}
	if err := mgr.AssetPut(asset); err != nil {
		t.Fatalf("asset put: %v", err)
	}
	// Mutating the original after the put must not affect the stored record.
	asset.Name = "tampered"
	loaded, _ := mgr.AssetGet(ref(0x10))
	if loaded.Name != "Box 1" {
		t.Fatalf("stored record aliased caller memory")
	}
}
