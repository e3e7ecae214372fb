package boxmint

import (
	"errors"
	"testing"
)

func TestDeriveAddressDeterministic(t *testing.T) {
	a := DeriveAddress(SeedBox, BoxSeedParts(42, 0), 0x01)
	b := DeriveAddress(SeedBox, BoxSeedParts(42, 0), 0x01)
	if a != b {
		t.Fatalf("derivation not deterministic")
	}
	if err := VerifyDerived(a, SeedBox, BoxSeedParts(42, 0), 0x01); err != nil {
		t.Fatalf("verify derived: %v", err)
	}
}

func TestDeriveAddressDistinct(t *testing.T) {
	base := DeriveAddress(SeedBox, BoxSeedParts(42, 0), 0x01)
	variants := [][32]byte{
		DeriveAddress(SeedBox, BoxSeedParts(42, 1), 0x01),
		DeriveAddress(SeedBox, BoxSeedParts(43, 0), 0x01),
		DeriveAddress(SeedBox, BoxSeedParts(42, 0), 0x02),
		DeriveAddress(SeedFigure, BoxSeedParts(42, 0), 0x01),
	}
	for i, v := range variants {
		if v == base {
			t.Fatalf("variant %d collides with base", i)
		}
	}
}

func TestVerifyDerivedMismatch(t *testing.T) {
	addr := DeriveAddress(SeedBox, BoxSeedParts(42, 0), 0x01)
	if err := VerifyDerived(addr, SeedBox, BoxSeedParts(42, 0), 0x02); !errors.Is(err, ErrBadDerivation) {
		t.Fatalf("expected ErrBadDerivation, got %v", err)
	}
	if err := VerifyDerived(addr, SeedBox, BoxSeedParts(42, 1), 0x01); !errors.Is(err, ErrBadDerivation) {
		t.Fatalf("expected ErrBadDerivation, got %v", err)
	}
}

func TestReceiptSeedPartsSeparateDomains(t *testing.T) {
	box := DeriveAddress(SeedReceipt, ReceiptSeedParts(ReceiptKindBox, 7), 0x01)
	figure := DeriveAddress(SeedReceipt, ReceiptSeedParts(ReceiptKindFigure, 7), 0x01)
	if box == figure {
		t.Fatalf("receipt domains collide for equal reference ids")
	}
}
