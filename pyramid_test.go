package retawny

import "testing"

func TestReflect101(t *testing.T) {
	cases := []struct{ i, n, want int }{
		{0, 5, 0},
		{4, 5, 4},
		{-1, 5, 1},
		{5, 5, 3},
		{-5, 5, 3},
		{0, 1, 0},
	}
	for _, tc := range cases {
		if got := reflect101(tc.i, tc.n); got != tc.want {
			t.Errorf("reflect101(%d, %d) = %d, want %d", tc.i, tc.n, got, tc.want)
		}
	}
}

func TestReflectEdge(t *testing.T) {
	cases := []struct{ i, n, want int }{
		{0, 5, 0},
		{4, 5, 4},
		{-1, 5, 0},
		{5, 5, 4},
		{-2, 5, 1},
	}
	for _, tc := range cases {
		if got := reflectEdge(tc.i, tc.n); got != tc.want {
			t.Errorf("reflectEdge(%d, %d) = %d, want %d", tc.i, tc.n, got, tc.want)
		}
	}
}

func TestNumPyrDownHalvesDimensions(t *testing.T) {
	src := newNumPlane(17, 9, 1)
	down := numPyrDown(src)
	if down.w != 9 || down.h != 5 {
		t.Errorf("pyrDown(17x9) = %dx%d, want 9x5", down.w, down.h)
	}
}

func TestNumPyrUpRestoresRequestedSize(t *testing.T) {
	src := newNumPlane(9, 5, 1)
	up := numPyrUp(src, 17, 9)
	if up.w != 17 || up.h != 9 {
		t.Errorf("pyrUp(9x5 -> 17x9) = %dx%d, want 17x9", up.w, up.h)
	}
}

func TestGaussianBlurPreservesConstantPlane(t *testing.T) {
	src := newNumPlane(8, 8, 1)
	for i := range src.data {
		src.data[i] = 42
	}
	out := gaussianBlur(src, 1)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if v := out.at(x, y, 0); v < 41.999 || v > 42.001 {
				t.Fatalf("gaussianBlur of a constant plane at (%d,%d) = %v, want 42", x, y, v)
			}
		}
	}
}

func TestSaturateInt16Clamps(t *testing.T) {
	if got := saturateInt16(40000); got != 32767 {
		t.Errorf("saturateInt16(40000) = %d, want 32767", got)
	}
	if got := saturateInt16(-40000); got != -32768 {
		t.Errorf("saturateInt16(-40000) = %d, want -32768", got)
	}
	if got := saturateInt16(100); got != 100 {
		t.Errorf("saturateInt16(100) = %d, want 100", got)
	}
}

func TestCreateAndRestoreLaplacePyrRoundTrip(t *testing.T) {
	img := newInt16Plane(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			for c := 0; c < 3; c++ {
				img.set(x, y, c, int16((x+y*16)%100))
			}
		}
	}

	pyr := createLaplacePyr(img, 3)
	if len(pyr) != 4 {
		t.Fatalf("createLaplacePyr levels = %d, want 4", len(pyr))
	}
	restoreFromLaplacePyr(pyr)

	const tolerance = 3
	for y := 4; y < 12; y++ {
		for x := 4; x < 12; x++ {
			for c := 0; c < 3; c++ {
				want := int(img.at(x, y, c))
				got := int(pyr[0].at(x, y, c))
				if diffInt(got, want) > tolerance {
					t.Fatalf("restored pixel (%d,%d,%d) = %d, want ~%d", x, y, c, got, want)
				}
			}
		}
	}
}

func TestCreateLaplacePyrZeroLevelsIsIdentity(t *testing.T) {
	img := newInt16Plane(4, 4)
	img.set(1, 1, 0, 77)
	pyr := createLaplacePyr(img, 0)
	if len(pyr) != 1 {
		t.Fatalf("len(pyr) = %d, want 1", len(pyr))
	}
	if pyr[0] != img {
		t.Error("createLaplacePyr with 0 levels should return the input plane unchanged")
	}
}
