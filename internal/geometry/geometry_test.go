package geometry

import "testing"

func TestRectRightBottom(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 30, H: 40}
	if got := r.Right(); got != 40 {
		t.Fatalf("Right() = %d, want 40", got)
	}
	if got := r.Bottom(); got != 60 {
		t.Fatalf("Bottom() = %d, want 60", got)
	}
}

func TestRectUnionWithEmptyIsIdentity(t *testing.T) {
	r := Rect{X: 1, Y: 1, W: 5, H: 5}
	if got := r.Union(Rect{}); got != r {
		t.Fatalf("Union(empty) = %+v, want %+v", got, r)
	}
	if got := (Rect{}).Union(r); got != r {
		t.Fatalf("empty.Union(r) = %+v, want %+v", got, r)
	}
}

func TestRectUnionCoversBoth(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 5, Y: 5, W: 10, H: 10}
	u := a.Union(b)
	want := Rect{X: 0, Y: 0, W: 15, H: 15}
	if u != want {
		t.Fatalf("Union = %+v, want %+v", u, want)
	}
}

func TestRectContainsIntersectsOutside(t *testing.T) {
	outer := Rect{X: 0, Y: 0, W: 100, H: 100}
	inner := Rect{X: 10, Y: 10, W: 10, H: 10}
	far := Rect{X: 1000, Y: 1000, W: 10, H: 10}

	if !outer.Contains(inner) {
		t.Fatalf("expected outer to contain inner")
	}
	if outer.Contains(far) {
		t.Fatalf("did not expect outer to contain far")
	}
	if !outer.Intersects(inner) {
		t.Fatalf("expected outer to intersect inner")
	}
	if !far.Outside(outer) {
		t.Fatalf("expected far to be outside outer")
	}
	if outer.Outside(inner) {
		t.Fatalf("did not expect outer to be outside inner")
	}
}

func TestLerpAtEndpoints(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 100, Y: 200, W: 50, H: 60}
	if got := Lerp(a, b, 0); got != a {
		t.Fatalf("Lerp(t=0) = %+v, want %+v", got, a)
	}
	if got := Lerp(a, b, 1); got != b {
		t.Fatalf("Lerp(t=1) = %+v, want %+v", got, b)
	}
}

func TestEasingBoundaries(t *testing.T) {
	for _, e := range []Easing{EasingLinear, EasingInCubic, EasingOutCubic, EasingInOutCubic, EasingInQuad, EasingOutQuad} {
		if got := e.Apply(0); got != 0 {
			t.Errorf("%s.Apply(0) = %v, want 0", e, got)
		}
		if got := e.Apply(1); got != 1 {
			t.Errorf("%s.Apply(1) = %v, want 1", e, got)
		}
	}
}

func TestEasingClampsOutOfRange(t *testing.T) {
	if got := EasingOutCubic.Apply(-5); got != EasingOutCubic.Apply(0) {
		t.Fatalf("expected negative t to clamp to 0, got %v", got)
	}
	if got := EasingInCubic.Apply(5); got != EasingInCubic.Apply(1) {
		t.Fatalf("expected t>1 to clamp to 1, got %v", got)
	}
}

func TestEasingStringNames(t *testing.T) {
	cases := map[Easing]string{
		EasingLinear:     "Linear",
		EasingInCubic:    "InCubic",
		EasingOutCubic:   "OutCubic",
		EasingInOutCubic: "InOutCubic",
		EasingInQuad:     "InQuad",
		EasingOutQuad:    "OutQuad",
	}
	for e, want := range cases {
		if got := e.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", e, got, want)
		}
	}
}
