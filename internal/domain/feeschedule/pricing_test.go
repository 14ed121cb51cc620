package feeschedule

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAdjustAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		percent float64
		roundUp bool
		want    float64
	}{
		{"no adjustment", 100, 0, false, 100},
		{"ten percent up", 100, 10, false, 110},
		{"ten percent down", 100, -10, false, 90},
		{"round up to whole dollar", 100.01, 0, true, 101},
		{"round up after adjust", 95, 10, true, 105}, // 104.50 -> 105
		{"whole amount not lifted", 110, 0, true, 110},
		{"hundred percent", 75, 100, false, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdjustAmount(tt.amount, tt.percent, tt.roundUp); !approx(got, tt.want) {
				t.Errorf("AdjustAmount(%v, %v, %v) = %v, want %v", tt.amount, tt.percent, tt.roundUp, got, tt.want)
			}
		})
	}
}

func TestPriceFromRates(t *testing.T) {
	rates := map[string]float64{
		"97110": 30.00,
		"97140": 28.50,
		"97530": 35.25,
	}
	entries := PriceFromRates(rates, 20, true)
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	// Sorted by code.
	if entries[0].ProcedureCode != "97110" || entries[2].ProcedureCode != "97530" {
		t.Errorf("entries not sorted: %v", entries)
	}

	// 30.00 * 1.2 = 36.00 exactly; 28.50 * 1.2 = 34.20 -> 35.
	if entries[0].Amount != 36 {
		t.Errorf("97110 = %v, want 36", entries[0].Amount)
	}
	if entries[1].Amount != 35 {
		t.Errorf("97140 = %v, want 35", entries[1].Amount)
	}
}

func TestPriceFromRows(t *testing.T) {
	rows := []ImportRow{
		{ProcedureCode: "97110", Amount: 32},
		{ProcedureCode: "97140", Amount: 29.75},
	}
	entries, err := PriceFromRows(rows)
	if err != nil {
		t.Fatalf("PriceFromRows: %v", err)
	}
	// Rows are taken flat.
	if entries[1].Amount != 29.75 {
		t.Errorf("amount = %v, want 29.75", entries[1].Amount)
	}

	badRows := [][]ImportRow{
		{{Amount: 10}}, // missing code
		{{ProcedureCode: "97110", Amount: -1}},
		{{ProcedureCode: "97110", Amount: 1}, {ProcedureCode: "97110", Amount: 2}}, // duplicate
	}
	for i, rows := range badRows {
		if _, err := PriceFromRows(rows); err == nil {
			t.Errorf("bad rows #%d accepted", i)
		}
	}
}

func TestPriceFromEntries(t *testing.T) {
	desc := "Therapeutic exercise"
	source := []Entry{{ProcedureCode: "97110", Description: &desc, Amount: 40}}

	entries := PriceFromEntries(source, -25, false)
	if !approx(entries[0].Amount, 30) {
		t.Errorf("amount = %v, want 30", entries[0].Amount)
	}
	if entries[0].Description == nil || *entries[0].Description != desc {
		t.Error("description not carried over")
	}
}

func TestPricingRequestValidate(t *testing.T) {
	sid := uuid.New()
	tests := []struct {
		name    string
		req     PricingRequest
		wantErr bool
	}{
		{"copy needs source", PricingRequest{Method: MethodCopy}, true},
		{"copy with source", PricingRequest{Method: MethodCopy, SourceScheduleID: &sid}, false},
		{"contract needs rows", PricingRequest{Method: MethodContract}, true},
		{"import needs rows", PricingRequest{Method: MethodImport}, true},
		{"import with rows", PricingRequest{Method: MethodImport, Rows: []ImportRow{{ProcedureCode: "97110"}}}, false},
		{"medicare bare ok", PricingRequest{Method: MethodMedicare}, false},
		{"unknown method", PricingRequest{Method: "guesswork"}, true},
		{"percent below -100", PricingRequest{Method: MethodMedicare, PercentAdjust: -150}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
