package value

import "testing"

func TestToFloatMetersPlain(t *testing.T) {
	f, ok := ToFloatMeters("3.5")
	if !ok || f != 3.5 {
		t.Fatalf("expected 3.5, got %v ok=%v", f, ok)
	}
}

func TestToFloatMetersExplicitSuffix(t *testing.T) {
	f, ok := ToFloatMeters("12 m")
	if !ok || f != 12 {
		t.Fatalf("expected 12, got %v ok=%v", f, ok)
	}
}

func TestToFloatMetersFeetInches(t *testing.T) {
	f, ok := ToFloatMeters(`12'6"`)
	if !ok {
		t.Fatal("expected ok")
	}
	var inches float64 = 12.0*12.0 + 6.0
	want := inches * feetToMeters
	if f != want {
		t.Fatalf("expected %v, got %v", want, f)
	}
}

func TestToFloatMetersFeetOnly(t *testing.T) {
	f, ok := ToFloatMeters(`10'`)
	if !ok {
		t.Fatal("expected ok")
	}
	want := 10.0 * 12.0 * feetToMeters
	if f != want {
		t.Fatalf("expected %v, got %v", want, f)
	}
}

func TestToFloatMetersFallbackNumber(t *testing.T) {
	f, ok := ToFloatMeters("approx 5 units")
	if !ok || f != 5 {
		t.Fatalf("expected 5, got %v ok=%v", f, ok)
	}
}

func TestToFloatMetersUnparseable(t *testing.T) {
	_, ok := ToFloatMeters("unknown")
	if ok {
		t.Fatal("expected not ok")
	}
}

func TestPropertyMapOrderPreserved(t *testing.T) {
	p := NewPropertyMap()
	p.Set("b", String("2"))
	p.Set("a", String("1"))
	p.Set("b", String("overwritten"))

	if len(p.Keys) != 2 || p.Keys[0] != "b" || p.Keys[1] != "a" {
		t.Fatalf("expected insertion order preserved, got %v", p.Keys)
	}
	v, _ := p.Get("b")
	if s, _ := v.AsString(); s != "overwritten" {
		t.Fatalf("expected overwritten value, got %v", s)
	}
}

func TestPropertyMapDelete(t *testing.T) {
	p := NewPropertyMap()
	p.Set("a", Int(1))
	p.Set("b", Int(2))
	p.Delete("a")

	if len(p.Keys) != 1 || p.Keys[0] != "b" {
		t.Fatalf("expected only b to remain, got %v", p.Keys)
	}
	if _, ok := p.Get("a"); ok {
		t.Fatal("expected a to be gone")
	}
}

func TestCoalesceSkipsEmptyAndNull(t *testing.T) {
	p := NewPropertyMap()
	p.Set("shop", String(""))
	p.Set("tourism", Null())
	p.Set("amenity", String("cafe"))

	v, ok := Coalesce(p, "shop", "tourism", "amenity")
	if !ok {
		t.Fatal("expected a match")
	}
	if s, _ := v.AsString(); s != "cafe" {
		t.Fatalf("expected cafe, got %v", s)
	}
}

func TestFromInterfaceRoundTrip(t *testing.T) {
	v := FromInterface(map[string]interface{}{"a": 1.0, "b": "x"})
	m, ok := v.AsMap()
	if !ok {
		t.Fatal("expected map")
	}
	if f, _ := m["a"].AsFloat(); f != 1.0 {
		t.Fatalf("expected 1.0, got %v", f)
	}
	if s, _ := m["b"].AsString(); s != "x" {
		t.Fatalf("expected x, got %v", s)
	}
}
