package state

import (
	"boxchain/native/assets"
	"boxchain/native/boxmint"
	"boxchain/storage"
)

// FrameFactory opens all-or-nothing execution frames over a shared store.
// Each frame buffers its mutations in an overlay; Commit publishes them,
// Discard drops them. Competing frames against the same records resolve by
// whichever commits first — the loser fails outright and resubmits with
// fresh nonces.
type FrameFactory struct {
	db storage.Database
}

// NewFrameFactory creates a factory over the backing store.
func NewFrameFactory(db storage.Database) *FrameFactory {
	return &FrameFactory{db: db}
}

// Begin opens a fresh frame.
func (f *FrameFactory) Begin() (boxmint.Frame, error) {
	overlay := storage.NewOverlay(f.db)
	mgr := NewManager(overlay)
	return &frame{
		overlay:  overlay,
		mgr:      mgr,
		registry: assets.NewRegistry(mgr),
	}, nil
}

type frame struct {
	overlay  *storage.Overlay
	mgr      *Manager
	registry *assets.Registry
}

func (f *frame) State() boxmint.LedgerState { return f.mgr }

func (f *frame) Registry() assets.Executor { return f.registry }

func (f *frame) Commit() error { return f.overlay.Commit() }

func (f *frame) Discard() { f.overlay.Discard() }
