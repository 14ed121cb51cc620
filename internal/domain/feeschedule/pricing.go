package feeschedule

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
)

// PricingRequest carries the method-specific inputs used to build a
// schedule's entries. Exactly one input set applies per method.
type PricingRequest struct {
	Method        string  `json:"method"`
	PercentAdjust float64 `json:"percent_adjust"`
	RoundUp       bool    `json:"round_up"`

	// copy
	SourceScheduleID *uuid.UUID `json:"source_schedule_id,omitempty"`

	// contract and import
	Rows []ImportRow `json:"rows,omitempty"`

	// medicare and charges: limit pricing to these codes; empty means all
	// codes the rate source knows.
	ProcedureCodes []string `json:"procedure_codes,omitempty"`
}

// ImportRow is one caller-supplied price line.
type ImportRow struct {
	ProcedureCode string  `json:"procedure_code"`
	Description   *string `json:"description,omitempty"`
	Amount        float64 `json:"amount"`
}

// AdjustAmount applies the percent adjustment and the optional round-up to a
// base amount. A 10% adjust turns 100 into 110; round-up then lifts 110.01 to
// 111 (whole dollars, never down).
func AdjustAmount(amount, percentAdjust float64, roundUp bool) float64 {
	adjusted := amount * (1 + percentAdjust/100)
	if roundUp {
		adjusted = math.Ceil(adjusted)
	}
	return adjusted
}

// PriceFromRates builds entries from a code→base-amount map, percent adjusted.
// Output is sorted by procedure code so bulk inserts are deterministic.
func PriceFromRates(rates map[string]float64, percentAdjust float64, roundUp bool) []Entry {
	entries := make([]Entry, 0, len(rates))
	for code, amount := range rates {
		entries = append(entries, Entry{
			ProcedureCode: code,
			Amount:        AdjustAmount(amount, percentAdjust, roundUp),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ProcedureCode < entries[j].ProcedureCode })
	return entries
}

// PriceFromRows builds entries from caller-supplied rows. Contract rows are
// taken flat; import rows also skip adjustment since the caller states final
// prices.
func PriceFromRows(rows []ImportRow) ([]Entry, error) {
	entries := make([]Entry, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if row.ProcedureCode == "" {
			return nil, fmt.Errorf("row missing procedure_code")
		}
		if row.Amount < 0 {
			return nil, fmt.Errorf("negative amount for %s", row.ProcedureCode)
		}
		if seen[row.ProcedureCode] {
			return nil, fmt.Errorf("duplicate procedure_code %s", row.ProcedureCode)
		}
		seen[row.ProcedureCode] = true
		entries = append(entries, Entry{
			ProcedureCode: row.ProcedureCode,
			Description:   row.Description,
			Amount:        row.Amount,
		})
	}
	return entries, nil
}

// PriceFromEntries re-prices an existing schedule's entries, percent adjusted.
func PriceFromEntries(source []Entry, percentAdjust float64, roundUp bool) []Entry {
	entries := make([]Entry, 0, len(source))
	for _, e := range source {
		entries = append(entries, Entry{
			ProcedureCode: e.ProcedureCode,
			Description:   e.Description,
			Amount:        AdjustAmount(e.Amount, percentAdjust, roundUp),
		})
	}
	return entries
}

func (p *PricingRequest) validate() error {
	if !ValidMethod(p.Method) {
		return fmt.Errorf("invalid pricing method: %s", p.Method)
	}
	switch p.Method {
	case MethodCopy:
		if p.SourceScheduleID == nil {
			return fmt.Errorf("copy pricing requires source_schedule_id")
		}
	case MethodContract, MethodImport:
		if len(p.Rows) == 0 {
			return fmt.Errorf("%s pricing requires rows", p.Method)
		}
	}
	if p.PercentAdjust < -100 {
		return fmt.Errorf("percent_adjust below -100 yields negative prices")
	}
	return nil
}
