package align

import "testing"

func TestUp(t *testing.T) {
	cases := []struct {
		addr, alignment, want uintptr
	}{
		{0, 16, 0},
		{1, 16, 16},
		{15, 16, 16},
		{16, 16, 16},
		{17, 16, 32},
		{7, 8, 8},
		{8, 1, 8},
	}

	for _, c := range cases {
		got, ok := Up(c.addr, c.alignment)
		if !ok {
			t.Errorf("Up(%d, %d): unexpected overflow", c.addr, c.alignment)
			continue
		}

		if got != c.want {
			t.Errorf("Up(%d, %d) = %d, want %d", c.addr, c.alignment, got, c.want)
		}
	}
}

func TestUpOverflow(t *testing.T) {
	maxUint := ^uintptr(0)

	if _, ok := Up(maxUint, 16); ok {
		t.Fatalf("Up(maxUint, 16): expected overflow to be reported")
	}
}

func TestDown(t *testing.T) {
	cases := []struct {
		addr, alignment, want uintptr
	}{
		{0, 16, 0},
		{1, 16, 0},
		{16, 16, 16},
		{31, 16, 16},
		{32, 16, 32},
	}

	for _, c := range cases {
		if got := Down(c.addr, c.alignment); got != c.want {
			t.Errorf("Down(%d, %d) = %d, want %d", c.addr, c.alignment, got, c.want)
		}
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	yes := []uintptr{1, 2, 4, 8, 16, 1024, 1 << 30}
	no := []uintptr{0, 3, 5, 6, 7, 9, 1023}

	for _, n := range yes {
		if !IsPowerOfTwo(n) {
			t.Errorf("IsPowerOfTwo(%d) = false, want true", n)
		}
	}

	for _, n := range no {
		if IsPowerOfTwo(n) {
			t.Errorf("IsPowerOfTwo(%d) = true, want false", n)
		}
	}
}
