package history

import "testing"

func TestBufferPushEvictsOldest(t *testing.T) {
	b := NewBuffer[string](3)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		b.Push(s)
	}
	got := b.Items()
	if len(got) != 3 {
		t.Fatalf("want 3 items, got %d", len(got))
	}
	if got[0] != "c" || got[1] != "d" || got[2] != "e" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestBufferItemsIsCopy(t *testing.T) {
	b := NewBuffer[int](2)
	b.Push(1)
	b.Push(2)

	items := b.Items()
	items[0] = 42
	if b.Items()[0] != 1 {
		t.Fatalf("internal state mutated via returned slice")
	}
}

func TestBufferReset(t *testing.T) {
	b := NewBuffer[int](0)
	if b.Limit() != 1 {
		t.Fatalf("limit should be clamped to 1, got %d", b.Limit())
	}
	b.Push(1)
	b.Push(2)
	if b.Len() != 1 || b.Items()[0] != 2 {
		t.Fatalf("unexpected items: %v", b.Items())
	}
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("reset did not clear buffer")
	}
}
