package event

import "testing"

func TestSequencer_Stamp(t *testing.T) {
	seq := NewSequencer()

	first := seq.Stamp(TypeProducts, nil)
	second := seq.Stamp(TypePurchase, 42)

	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("Expected seq 1, 2; got %d, %d", first.Seq, second.Seq)
	}
	if first.Kind != "products" || second.Kind != "purchase" {
		t.Errorf("Unexpected kinds %q, %q", first.Kind, second.Kind)
	}
	if second.Data != 42 {
		t.Errorf("Expected data 42, got %v", second.Data)
	}
	if Type(0).String() != "unknown" {
		t.Errorf("Expected unknown for zero type")
	}
}
