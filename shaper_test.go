package fontcache

import (
	"errors"
	"testing"

	"github.com/gogpu/fontcache/internal/fonttest"

	"golang.org/x/image/math/fixed"
)

func variableFixture(t *testing.T) EntryRef {
	t.Helper()
	dir := t.TempDir()
	path := writeFont(t, dir, "var.ttf", fonttest.Font{
		Family:    "Vario",
		Subfamily: "Regular",
		Axes: []fonttest.Axis{
			{Tag: "wght", Min: 100, Default: 400, Max: 900},
			{Tag: "wdth", Min: 75, Default: 100, Max: 125},
		},
		Instances: []fonttest.Instance{
			{Name: "Condensed Black", Coords: []float32{900, 75}},
		},
	})
	c := New(WithInvariantChecks())
	if _, err := c.LoadFontFile(path); err != nil {
		t.Fatalf("LoadFontFile: %v", err)
	}
	ref, err := c.FindFont("Vario", "")
	if err != nil {
		t.Fatalf("FindFont: %v", err)
	}
	return ref
}

func TestResolveCoords(t *testing.T) {
	ref := variableFixture(t)

	t.Run("defaults", func(t *testing.T) {
		coords, err := resolveCoords(ref, ShaperSettings{})
		if err != nil {
			t.Fatalf("resolveCoords: %v", err)
		}
		if len(coords) != 2 || coords[0] != 400 || coords[1] != 100 {
			t.Errorf("coords = %v, want [400 100]", coords)
		}
	})

	t.Run("explicit variation", func(t *testing.T) {
		coords, err := resolveCoords(ref, ShaperSettings{
			Variations: []Variation{{Tag: "wght", Value: 650}},
		})
		if err != nil {
			t.Fatalf("resolveCoords: %v", err)
		}
		if coords[0] != 650 || coords[1] != 100 {
			t.Errorf("coords = %v, want [650 100]", coords)
		}
	})

	t.Run("clamped to axis range", func(t *testing.T) {
		coords, err := resolveCoords(ref, ShaperSettings{
			Variations: []Variation{
				{Tag: "wght", Value: 2000},
				{Tag: "wdth", Value: 10},
			},
		})
		if err != nil {
			t.Fatalf("resolveCoords: %v", err)
		}
		if coords[0] != 900 || coords[1] != 75 {
			t.Errorf("coords = %v, want clamped [900 75]", coords)
		}
	})

	t.Run("unknown tag ignored", func(t *testing.T) {
		coords, err := resolveCoords(ref, ShaperSettings{
			Variations: []Variation{{Tag: "slnt", Value: -10}},
		})
		if err != nil {
			t.Fatalf("resolveCoords: %v", err)
		}
		if coords[0] != 400 || coords[1] != 100 {
			t.Errorf("coords = %v, want defaults [400 100]", coords)
		}
	})

	t.Run("named instance", func(t *testing.T) {
		coords, err := resolveCoords(ref, ShaperSettings{
			UseNamedInstance: true,
			NamedInstance:    0,
		})
		if err != nil {
			t.Fatalf("resolveCoords: %v", err)
		}
		if coords[0] != 900 || coords[1] != 75 {
			t.Errorf("coords = %v, want instance [900 75]", coords)
		}
	})

	t.Run("named instance out of range", func(t *testing.T) {
		_, err := resolveCoords(ref, ShaperSettings{
			UseNamedInstance: true,
			NamedInstance:    5,
		})
		if !errors.Is(err, ErrInvalidEntry) {
			t.Errorf("err = %v, want ErrInvalidEntry", err)
		}
	})

	t.Run("static font has no coords", func(t *testing.T) {
		dir := t.TempDir()
		c := New()
		if _, err := c.LoadFontFile(writeFont(t, dir, "s.ttf", fonttest.Font{Family: "Static"})); err != nil {
			t.Fatalf("load: %v", err)
		}
		staticRef, err := c.FindFont("Static", "")
		if err != nil {
			t.Fatalf("FindFont: %v", err)
		}
		coords, err := resolveCoords(staticRef, ShaperSettings{
			Variations: []Variation{{Tag: "wght", Value: 700}},
		})
		if err != nil {
			t.Fatalf("resolveCoords: %v", err)
		}
		if coords != nil {
			t.Errorf("coords = %v, want nil", coords)
		}
	})
}

func TestShapingVariations(t *testing.T) {
	ref := variableFixture(t)

	coords, err := resolveCoords(ref, ShaperSettings{
		Variations: []Variation{{Tag: "wght", Value: 650}},
	})
	if err != nil {
		t.Fatalf("resolveCoords: %v", err)
	}
	vars := shapingVariations(ref.Axes(), coords)
	if len(vars) != 2 {
		t.Fatalf("len(vars) = %d, want 2", len(vars))
	}
	if vars[0].Tag.String() != "wght" || vars[0].Value != 650 {
		t.Errorf("vars[0] = %v %v, want wght 650", vars[0].Tag, vars[0].Value)
	}
	if vars[1].Tag.String() != "wdth" || vars[1].Value != 100 {
		t.Errorf("vars[1] = %v %v, want wdth 100", vars[1].Tag, vars[1].Value)
	}

	// Two shapers bound to different design-space points carry distinct
	// settings for the shaping face, not just distinct atlas keys.
	defaults, err := resolveCoords(ref, ShaperSettings{})
	if err != nil {
		t.Fatalf("resolveCoords defaults: %v", err)
	}
	defaultVars := shapingVariations(ref.Axes(), defaults)
	if defaultVars[0].Value == vars[0].Value {
		t.Error("explicit wght 650 matches the default axis value")
	}

	if got := shapingVariations(nil, nil); got != nil {
		t.Errorf("static font variations = %v, want nil", got)
	}
}

func TestNewShaperForeignRef(t *testing.T) {
	ref := variableFixture(t)
	other := New()
	if _, err := other.NewShaper(ref, ShaperSettings{}); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("NewShaper with foreign ref = %v, want ErrInvalidEntry", err)
	}
}

func TestShapeEmptyText(t *testing.T) {
	var s FontShaper
	glyphs, err := s.Shape("", nil, 16)
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if glyphs != nil {
		t.Errorf("Shape(\"\") = %v, want nil", glyphs)
	}
}

func TestPointSize(t *testing.T) {
	if got := PointSize(16); got != 12 {
		t.Errorf("PointSize(16) = %v, want 12", got)
	}
	if got := PointSize(96); got != 72 {
		t.Errorf("PointSize(96) = %v, want 72", got)
	}
}

func TestFixedToPixels(t *testing.T) {
	if got := fixedToPixels(fixed.Int26_6(96)); got != 1.5 {
		t.Errorf("fixedToPixels(96) = %v, want 1.5", got)
	}
	if got := fixedToPixels(fixed.Int26_6(-64)); got != -1 {
		t.Errorf("fixedToPixels(-64) = %v, want -1", got)
	}
}
