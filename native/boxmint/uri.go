package boxmint

import (
	"strconv"
	"strings"
)

// Segment tokens used to derive the figures and receipts metadata trees from
// the configured boxes base.
const (
	uriSegmentBoxes    = "boxes"
	uriSegmentFigures  = "figures"
	uriSegmentReceipts = "receipts"
)

// SequenceName renders the display name for the asset with the given
// sequence number: "<prefix> <sequence>".
func SequenceName(prefix string, seq uint64) string {
	var b strings.Builder
	b.Grow(len(prefix) + 12)
	b.WriteString(prefix)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(seq, 10))
	return b.String()
}

// SequenceURI renders the metadata URI for a sequence number. A base that
// already ends in ".json" points at a single shared metadata file and is
// returned verbatim for every unit; otherwise "<base>/<seq>.json".
func SequenceURI(base string, seq uint64) string {
	if strings.HasSuffix(base, ".json") {
		return base
	}
	var b strings.Builder
	b.Grow(len(base) + 18)
	b.WriteString(strings.TrimSuffix(base, "/"))
	b.WriteByte('/')
	b.WriteString(strconv.FormatUint(seq, 10))
	b.WriteString(".json")
	return b.String()
}

// ReplaceSegment swaps the first occurrence of oldSeg for newSeg in the URI
// base. The whole metadata tree is configured from one root string, so a base
// without the expected token is a configuration error and fails loudly rather
// than silently falling back.
func ReplaceSegment(base, oldSeg, newSeg string) (string, error) {
	if !strings.Contains(base, oldSeg) {
		return "", ErrURISegment
	}
	return strings.Replace(base, oldSeg, newSeg, 1), nil
}

// FigureURIBase derives the figures metadata base from the boxes base.
func FigureURIBase(boxBase string) (string, error) {
	return ReplaceSegment(boxBase, uriSegmentBoxes, uriSegmentFigures)
}

// ReceiptURIBase derives the receipts metadata base for the given reference
// domain from the boxes base. Receipts live under "receipts/boxes" and
// "receipts/figures" so the whole tree hangs off the one configured root.
func ReceiptURIBase(boxBase string, kind ReceiptKind) (string, error) {
	switch kind {
	case ReceiptKindBox:
		return ReplaceSegment(boxBase, uriSegmentBoxes, uriSegmentReceipts+"/"+uriSegmentBoxes)
	case ReceiptKindFigure:
		return ReplaceSegment(boxBase, uriSegmentBoxes, uriSegmentReceipts+"/"+uriSegmentFigures)
	default:
		return "", ErrURISegment
	}
}
