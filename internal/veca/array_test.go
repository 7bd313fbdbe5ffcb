package veca

import "testing"

func TestResizeZeroFills(t *testing.T) {
	a := New(2)
	a.Set(0, Vec2{1, 2})
	a.Set(1, Vec2{3, 4})
	a.Resize(4)

	if a.Len() != 4 {
		t.Fatalf("expected len 4, got %d", a.Len())
	}
	if a.At(1) != (Vec2{3, 4}) {
		t.Errorf("expected existing point kept, got %v", a.At(1))
	}
	for i := 2; i < 4; i++ {
		if a.At(i) != (Vec2{}) {
			t.Errorf("expected zero at %d, got %v", i, a.At(i))
		}
	}

	a.Resize(1)
	a.Resize(2)
	if a.At(1) != (Vec2{}) {
		t.Errorf("expected regrown slot zeroed, got %v", a.At(1))
	}
}

func TestBindExternalStorage(t *testing.T) {
	block := New(6)
	a := &Array{}
	a.BindExternalStorage(block, 2, 3)

	if !a.IsBound() || !a.BoundTo(block, 2) {
		t.Fatal("expected array bound to block at offset 2")
	}
	a.Set(0, Vec2{7, 8})
	if block.At(2) != (Vec2{7, 8}) {
		t.Errorf("expected write through to block, got %v", block.At(2))
	}

	block.Set(4, Vec2{1, 1})
	if a.At(2) != (Vec2{1, 1}) {
		t.Errorf("expected view to observe block write, got %v", a.At(2))
	}
}

func TestBindZeroLengthClears(t *testing.T) {
	block := New(4)
	a := New(3)
	a.BindExternalStorage(block, 0, 0)
	if a.Len() != 0 || a.IsBound() {
		t.Errorf("expected cleared unbound array, got len %d bound %v", a.Len(), a.IsBound())
	}
}

func TestGrowingBoundArrayDetaches(t *testing.T) {
	block := New(4)
	a := &Array{}
	a.BindExternalStorage(block, 1, 2)
	a.Set(1, Vec2{5, 5})

	a.Resize(3)
	if a.IsBound() {
		t.Fatal("expected array detached after growing past its view")
	}
	if a.At(1) != (Vec2{5, 5}) {
		t.Errorf("expected contents preserved, got %v", a.At(1))
	}
	a.Set(2, Vec2{9, 9})
	if block.At(3) != (Vec2{}) {
		t.Errorf("expected block untouched after detach, got %v", block.At(3))
	}
}

func TestArithmetic(t *testing.T) {
	a := FromPoints([]Vec2{{1, 1}, {2, 2}, {3, 3}})
	b := FromPoints([]Vec2{{1, -1}, {1, -1}})
	a.AddInPlace(b)

	want := []Vec2{{2, 0}, {3, 1}, {3, 3}}
	for i, w := range want {
		if a.At(i) != w {
			t.Errorf("point %d: expected %v, got %v", i, w, a.At(i))
		}
	}

	a.ScaleInPlace(-2)
	if a.MaxAbs() != 6 {
		t.Errorf("expected max abs 6, got %f", a.MaxAbs())
	}
}
