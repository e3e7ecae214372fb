package state

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"boxchain/core/types"
	"boxchain/native/assets"
	"boxchain/native/boxmint"
	"boxchain/storage"
)

var (
	accountPrefix    = []byte("account:")
	assetPrefix      = []byte("asset:")
	collectionPrefix = []byte("collection:")
	configKeyBytes   = []byte("boxmint/config")
	deliveryPrefix   = []byte("boxmint/delivery/")
	pendingPrefix    = []byte("boxmint/pending/")
)

// Manager provides typed access to ledger records over a key-value store. It
// implements the state surfaces of the asset registry and the boxmint engine.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager over the provided store.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func prefixedKey(prefix []byte, suffix []byte) []byte {
	buf := make([]byte, len(prefix)+len(suffix))
	copy(buf, prefix)
	copy(buf[len(prefix):], suffix)
	return ethcrypto.Keccak256(buf)
}

func (m *Manager) read(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if err == storage.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) write(key []byte, record interface{}) error {
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// --- accounts ---

func accountKey(addr []byte) []byte { return prefixedKey(accountPrefix, addr) }

// GetAccount loads the account stored for the address, returning a zeroed
// account when none exists yet.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	stored := new(storedAccount)
	ok, err := m.read(accountKey(addr), stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return (&types.Account{}).EnsureBalances(), nil
	}
	return stored.toAccount(), nil
}

// PutAccount persists the account for the address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	return m.write(accountKey(addr), newStoredAccount(account))
}

// --- asset registry ---

func assetKey(addr [32]byte) []byte    { return prefixedKey(assetPrefix, addr[:]) }
func collectionKey(id [32]byte) []byte { return prefixedKey(collectionPrefix, id[:]) }

// AssetPut persists an asset record.
func (m *Manager) AssetPut(asset *assets.Asset) error {
	return m.write(assetKey(asset.Address), newStoredAsset(asset))
}

// AssetGet loads the asset at the given address.
func (m *Manager) AssetGet(addr [32]byte) (*assets.Asset, bool) {
	stored := new(storedAsset)
	ok, err := m.read(assetKey(addr), stored)
	if err != nil || !ok {
		return nil, false
	}
	return stored.toAsset(), true
}

// AssetDelete removes the asset at the given address.
func (m *Manager) AssetDelete(addr [32]byte) error {
	return m.db.Delete(assetKey(addr))
}

// CollectionPut persists a collection record.
func (m *Manager) CollectionPut(col *assets.Collection) error {
	return m.write(collectionKey(col.ID), newStoredCollection(col))
}

// CollectionGet loads a collection record.
func (m *Manager) CollectionGet(id [32]byte) (*assets.Collection, bool) {
	stored := new(storedCollection)
	ok, err := m.read(collectionKey(id), stored)
	if err != nil || !ok {
		return nil, false
	}
	return stored.toCollection(), true
}

// --- boxmint records ---

// ConfigPut persists the singleton configuration record.
func (m *Manager) ConfigPut(cfg *boxmint.Config) error {
	sanitized, err := boxmint.SanitizeConfig(cfg)
	if err != nil {
		return err
	}
	return m.write(ethcrypto.Keccak256(configKeyBytes), newStoredConfig(sanitized))
}

// ConfigGet loads the singleton configuration record.
func (m *Manager) ConfigGet() (*boxmint.Config, bool) {
	stored := new(storedConfig)
	ok, err := m.read(ethcrypto.Keccak256(configKeyBytes), stored)
	if err != nil || !ok {
		return nil, false
	}
	return stored.toConfig(), true
}

// DeliveryPut persists a delivery record at its derived address.
func (m *Manager) DeliveryPut(rec *boxmint.DeliveryRecord) error {
	return m.write(prefixedKey(deliveryPrefix, rec.Address[:]), newStoredDelivery(rec))
}

// DeliveryGet loads the delivery record at the given derived address.
func (m *Manager) DeliveryGet(addr [32]byte) (*boxmint.DeliveryRecord, bool) {
	stored := new(storedDelivery)
	ok, err := m.read(prefixedKey(deliveryPrefix, addr[:]), stored)
	if err != nil || !ok {
		return nil, false
	}
	return stored.toDelivery(), true
}

// DeliveryDelete removes the delivery record at the given derived address.
func (m *Manager) DeliveryDelete(addr [32]byte) error {
	return m.db.Delete(prefixedKey(deliveryPrefix, addr[:]))
}

// PendingPut persists the pending-reveal record keyed by its box.
func (m *Manager) PendingPut(p *boxmint.PendingReveal) error {
	return m.write(prefixedKey(pendingPrefix, p.Box[:]), newStoredPending(p))
}

// PendingGet loads the pending-reveal record for the box.
func (m *Manager) PendingGet(box [32]byte) (*boxmint.PendingReveal, bool) {
	stored := new(storedPending)
	ok, err := m.read(prefixedKey(pendingPrefix, box[:]), stored)
	if err != nil || !ok {
		return nil, false
	}
	return stored.toPending(), true
}

// PendingDelete removes the pending-reveal record for the box.
func (m *Manager) PendingDelete(box [32]byte) error {
	return m.db.Delete(prefixedKey(pendingPrefix, box[:]))
}
