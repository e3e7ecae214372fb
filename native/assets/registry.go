package assets

import (
	"encoding/hex"
	"fmt"
	"log/slog"

	"boxchain/observability/metrics"
)

// MaxName and MaxURI bound the metadata carried by a single asset. Client
// programs are expected to keep their template strings well under these caps.
const (
	MaxName = 32
	MaxURI  = 200
)

// State is the persistence surface the registry needs. The state manager
// implements it over the key-value store.
type State interface {
	AssetPut(*Asset) error
	AssetGet(addr [32]byte) (*Asset, bool)
	AssetDelete(addr [32]byte) error
	CollectionPut(*Collection) error
	CollectionGet(id [32]byte) (*Collection, bool)
}

// Executor is the narrow surface client programs build instructions against.
type Executor interface {
	Execute(ix *Instruction) error
	Lookup(addr [32]byte) (*Asset, bool)
}

// Registry implements the account-model asset service: create, burn, transfer
// and update of individually addressed collectibles with collection
// membership gated by the collection authority.
type Registry struct {
	state  State
	logger *slog.Logger
}

// NewRegistry creates a registry over the given state backend.
func NewRegistry(state State) *Registry {
	return &Registry{state: state, logger: slog.Default()}
}

// SetLogger overrides the registry logger. Passing nil resets to the default.
func (r *Registry) SetLogger(logger *slog.Logger) {
	if logger == nil {
		r.logger = slog.Default()
		return
	}
	r.logger = logger
}

// RegisterCollection records a collection and its update authority. Reusing an
// identifier fails rather than silently replacing the authority.
func (r *Registry) RegisterCollection(id, authority [32]byte, name string) error {
	if r == nil || r.state == nil {
		return fmt.Errorf("assets: registry state not configured")
	}
	if len(name) > MaxName {
		return ErrNameTooLong
	}
	if _, ok := r.state.CollectionGet(id); ok {
		return ErrCollectionExists
	}
	return r.state.CollectionPut(&Collection{ID: id, Authority: authority, Name: name})
}

// Lookup returns the asset stored at the given address, if any.
func (r *Registry) Lookup(addr [32]byte) (*Asset, bool) {
	if r == nil || r.state == nil {
		return nil, false
	}
	return r.state.AssetGet(addr)
}

// Execute dispatches a single instruction. Any failure leaves the registry
// unchanged; the registry never retries.
func (r *Registry) Execute(ix *Instruction) error {
	if r == nil || r.state == nil {
		return fmt.Errorf("assets: registry state not configured")
	}
	if ix == nil {
		return ErrBadInstruction
	}
	switch ix.Op {
	case OpCreate:
		return r.create(ix)
	case OpBurn:
		return r.burn(ix)
	case OpTransfer:
		return r.transfer(ix)
	case OpUpdate:
		return r.update(ix)
	default:
		return ErrBadInstruction
	}
}

func (r *Registry) create(ix *Instruction) error {
	target, ok := ix.target()
	if !ok {
		return ErrBadInstruction
	}
	owner, ok := ix.owner()
	if !ok {
		return ErrBadInstruction
	}
	collection, ok := ix.collection()
	if !ok {
		return ErrBadInstruction
	}
	if len(ix.Name) > MaxName {
		return ErrNameTooLong
	}
	if len(ix.URI) > MaxURI {
		return ErrURITooLong
	}
	if _, exists := r.state.AssetGet(target); exists {
		return ErrAssetExists
	}
	if collection != ([32]byte{}) {
		col, found := r.state.CollectionGet(collection)
		if !found {
			return ErrCollectionNotFound
		}
		if ix.Authority != col.Authority {
			return ErrUnauthorized
		}
	} else if ix.Authority == ([32]byte{}) {
		return ErrUnauthorized
	}
	asset := &Asset{
		Address:    target,
		Owner:      owner,
		Collection: collection,
		Authority:  ix.Authority,
		Name:       ix.Name,
		URI:        ix.URI,
	}
	if err := r.state.AssetPut(asset); err != nil {
		return err
	}
	metrics.Assets().CreateInc()
	r.logger.Info("asset created",
		slog.String("address", hex.EncodeToString(target[:])),
		slog.String("name", ix.Name),
	)
	return nil
}

func (r *Registry) burn(ix *Instruction) error {
	target, ok := ix.target()
	if !ok {
		return ErrBadInstruction
	}
	asset, found := r.state.AssetGet(target)
	if !found {
		return ErrAssetNotFound
	}
	if ix.Authority != asset.Authority {
		return ErrUnauthorized
	}
	if err := r.state.AssetDelete(target); err != nil {
		return err
	}
	metrics.Assets().BurnInc()
	r.logger.Info("asset burned", slog.String("address", hex.EncodeToString(target[:])))
	return nil
}

func (r *Registry) transfer(ix *Instruction) error {
	target, ok := ix.target()
	if !ok {
		return ErrBadInstruction
	}
	newOwner, ok := ix.owner()
	if !ok {
		return ErrBadInstruction
	}
	asset, found := r.state.AssetGet(target)
	if !found {
		return ErrAssetNotFound
	}
	if ix.OwnerSigner != asset.Owner && ix.Authority != asset.Authority {
		return ErrUnauthorized
	}
	asset.Owner = newOwner
	if err := r.state.AssetPut(asset); err != nil {
		return err
	}
	metrics.Assets().TransferInc()
	return nil
}

// update rewrites metadata and, through the same full-capability path, may
// grant collection membership: adding a collection requires the instruction
// authority to match that collection's registered authority.
func (r *Registry) update(ix *Instruction) error {
	target, ok := ix.target()
	if !ok {
		return ErrBadInstruction
	}
	collection, ok := ix.collection()
	if !ok {
		return ErrBadInstruction
	}
	if len(ix.Name) > MaxName {
		return ErrNameTooLong
	}
	if len(ix.URI) > MaxURI {
		return ErrURITooLong
	}
	asset, found := r.state.AssetGet(target)
	if !found {
		return ErrAssetNotFound
	}
	if ix.Authority != asset.Authority {
		return ErrUnauthorized
	}
	if collection != ([32]byte{}) && collection != asset.Collection {
		col, foundCol := r.state.CollectionGet(collection)
		if !foundCol {
			return ErrCollectionNotFound
		}
		if ix.Authority != col.Authority {
			return ErrUnauthorized
		}
		asset.Collection = collection
	}
	if ix.Name != "" {
		asset.Name = ix.Name
	}
	if ix.URI != "" {
		asset.URI = ix.URI
	}
	if err := r.state.AssetPut(asset); err != nil {
		return err
	}
	metrics.Assets().UpdateInc()
	return nil
}
