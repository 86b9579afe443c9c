package ids

import "testing"

func TestNewProducesOrderedUniqueIDs(t *testing.T) {
	seen := make(map[string]struct{})
	var prev string
	for i := 0; i < 1000; i++ {
		id := New()
		if len(id) != 26 {
			t.Fatalf("unexpected length: %q", id)
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id: %q", id)
		}
		seen[id] = struct{}{}
		if prev != "" && id <= prev {
			t.Fatalf("ids not monotonic: %q after %q", id, prev)
		}
		prev = id
	}
}
