package ids

import "testing"

func nodeBits(id int64) int64 { return (id >> 12) & 0x3FF }

func TestSetNodeIDStampsNodeBits(t *testing.T) {
	defer SetNodeID(1)
	for _, n := range []int64{0, 1, 42, 1023} {
		SetNodeID(n)
		if got := nodeBits(Generate()); got != n {
			t.Fatalf("node bits = %d, want %d", got, n)
		}
	}
}

func TestSetNodeIDClampsOutOfRange(t *testing.T) {
	defer SetNodeID(1)
	for _, n := range []int64{-5, 1024, 1 << 20} {
		SetNodeID(n)
		if got := nodeBits(Generate()); got != 1 {
			t.Fatalf("SetNodeID(%d): node bits = %d, want the fallback node", n, got)
		}
	}
}

func TestGenerateStrictlyIncreasing(t *testing.T) {
	prev := Generate()
	for i := 0; i < 1000; i++ {
		id := Generate()
		if id <= prev {
			t.Fatalf("id %d not greater than predecessor %d", id, prev)
		}
		prev = id
	}
}
