package segment

import (
	"encoding/json"
	"testing"

	"github.com/DavinciInspired/H2Ready-Kit/internal/category"
)

func TestCatalogCoversEveryJSONField(t *testing.T) {
	full := Inputs{}
	for _, f := range Fields() {
		var raw string
		switch f.Kind {
		case KindReal:
			raw = "1.5"
		case KindString:
			raw = "x"
		case KindBool:
			raw = "true"
		}
		if err := f.Set(&full, raw); err != nil {
			t.Fatalf("set %s: %v", f.Name, err)
		}
	}

	data, err := json.Marshal(full)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(m) != len(Fields()) {
		t.Fatalf("catalog has %d fields but JSON has %d keys", len(Fields()), len(m))
	}
	for name := range m {
		if _, ok := Lookup(name); !ok {
			t.Errorf("json field %s missing from catalog", name)
		}
	}
	if CountPresent(full) != len(Fields()) {
		t.Fatalf("expected all fields present, got %d", CountPresent(full))
	}
}

func TestFieldCategories(t *testing.T) {
	counts := map[category.Code]int{}
	for _, f := range Fields() {
		counts[f.Category]++
	}
	if counts[category.OperationalControls] != 5 {
		t.Fatalf("expected 5 operational-control fields, got %d", counts[category.OperationalControls])
	}
	for _, c := range category.Order {
		if counts[c] == 0 {
			t.Errorf("category %s has no fields", c)
		}
	}
}

func TestSetParsesAndClears(t *testing.T) {
	var in Inputs
	f, _ := Lookup("soil_ph")
	if err := f.Set(&in, " 6.5 "); err != nil {
		t.Fatalf("set: %v", err)
	}
	if in.SoilPH == nil || *in.SoilPH != 6.5 {
		t.Fatalf("expected 6.5, got %v", in.SoilPH)
	}
	if err := f.Set(&in, ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if in.SoilPH != nil {
		t.Fatal("expected cleared field")
	}

	b, _ := Lookup("has_h2_plan")
	if err := b.Set(&in, "Yes"); err != nil || in.HasH2Plan == nil || !*in.HasH2Plan {
		t.Fatalf("expected true, got %v (%v)", in.HasH2Plan, err)
	}
	if err := b.Set(&in, "maybe"); err == nil {
		t.Fatal("expected bool parse error")
	}
	if err := f.Set(&in, "acidic"); err == nil {
		t.Fatal("expected real parse error")
	}
}

func TestMergeOnlyCopiesPresent(t *testing.T) {
	dst := Inputs{SoilPH: Float(7), MICRisk: String("low")}
	Merge(&dst, Inputs{SoilPH: Float(4.5), H2Sensors: Bool(true)})

	if *dst.SoilPH != 4.5 {
		t.Fatalf("expected overwritten pH, got %v", *dst.SoilPH)
	}
	if dst.MICRisk == nil || *dst.MICRisk != "low" {
		t.Fatal("absent src field must not clear dst")
	}
	if dst.H2Sensors == nil || !*dst.H2Sensors {
		t.Fatal("expected h2_sensors copied")
	}
}

func TestValidateRanges(t *testing.T) {
	if err := Validate(Inputs{}); err != nil {
		t.Fatalf("empty inputs should validate: %v", err)
	}
	ok := Inputs{SoilPH: Float(7), ILICoveragePct: Float(100), YTRatio: Float(0.85)}
	if err := Validate(ok); err != nil {
		t.Fatalf("expected valid: %v", err)
	}

	cases := map[string]Inputs{
		"negative pct": {MaxMetalLossPct: Float(-1)},
		"pct over 100": {SCADAUptimePct: Float(120)},
		"ph over 14":   {SoilPH: Float(15)},
		"yt zero":      {YTRatio: Float(0)},
	}
	for name, in := range cases {
		if err := Validate(in); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
