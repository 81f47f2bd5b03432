/*
calc.go - Calculator payloads and the assignee financial overview

PURPOSE:
  Calculator inputs are a per-assignee bag of named values keyed by a
  free-form calculator key ("income-tax", "deductions", ...). Values are
  either numbers or strings; nothing else is accepted.

COERCION:
  Numeric reads go through CalcValue.Decimal():
  - numbers are used as-is
  - strings that parse as a decimal are used ("1200", " 15.5 ")
  - anything else, including a missing key, is zero

PRECISION:
  Numbers are held as decimal.Decimal so totals and the 25% estimate do not
  pick up floating-point noise. Round-tripping through JSON keeps them as
  JSON numbers.

SEE ALSO:
  - store/sqlite/calculator.go: Upsert / read of serialized payloads
*/
package desk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Calculator keys read by Overview.
const (
	CalcIncomeTax  = "income-tax"
	CalcDeductions = "deductions"
)

var (
	IncomeFields    = []string{"salary", "bonus", "other"}
	DeductionFields = []string{"retirement", "health", "charity"}

	// TaxRate is the flat rate used for the estimate.
	TaxRate = decimal.RequireFromString("0.25")
)

// =============================================================================
// CALC VALUE - number or string
// =============================================================================

// CalcValue is a single calculator input.
type CalcValue struct {
	num    decimal.Decimal
	text   string
	isText bool
}

// Number wraps a decimal.
func Number(d decimal.Decimal) CalcValue { return CalcValue{num: d} }

// NumberFromFloat wraps a float.
func NumberFromFloat(f float64) CalcValue { return CalcValue{num: decimal.NewFromFloat(f)} }

// Text wraps a string.
func Text(s string) CalcValue { return CalcValue{text: s, isText: true} }

// String returns the textual form of the value.
func (v CalcValue) String() string {
	if v.isText {
		return v.text
	}
	return v.num.String()
}

// Decimal returns the numeric value, coercing non-numeric text to zero.
func (v CalcValue) Decimal() decimal.Decimal {
	if !v.isText {
		return v.num
	}
	d, err := parseCalcNumber(strings.TrimSpace(v.text))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Calculator numbers are at most maxNumberLen characters with an exponent
// within +/-maxExponent.
const (
	maxNumberLen = 64
	maxExponent  = 30
)

var errNumberRange = errors.New("number out of range")

func parseCalcNumber(s string) (decimal.Decimal, error) {
	if len(s) > maxNumberLen {
		return decimal.Zero, errNumberRange
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, errNumberRange
	}
	return d, nil
}

func (v CalcValue) MarshalJSON() ([]byte, error) {
	if v.isText {
		return json.Marshal(v.text)
	}
	return []byte(v.num.String()), nil
}

func (v *CalcValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return Invalid("data", "empty value")
	}
	switch c := b[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	case c == '-' || (c >= '0' && c <= '9'):
		d, err := parseCalcNumber(string(b))
		if errors.Is(err, errNumberRange) {
			return Invalid("data", "number out of range")
		}
		if err != nil {
			return Invalid("data", fmt.Sprintf("invalid number %s", b))
		}
		*v = Number(d)
		return nil
	}
	return Invalid("data", fmt.Sprintf("values must be numbers or strings, got %s", b))
}

// =============================================================================
// CALC DATA - validated mapping
// =============================================================================

// CalcData maps field names to values. JSON nulls are dropped on decode.
type CalcData map[string]CalcValue

func (d *CalcData) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*d = nil
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return Invalid("data", "must be an object")
	}

	out := make(CalcData, len(raw))
	for key, msg := range raw {
		if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			continue
		}
		var v CalcValue
		if err := json.Unmarshal(msg, &v); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return Invalid("data."+key, ve.Message)
			}
			return Invalid("data."+key, err.Error())
		}
		out[key] = v
	}
	*d = out
	return nil
}

// Decimal returns the coerced numeric value of key, zero when absent.
func (d CalcData) Decimal(key string) decimal.Decimal {
	v, ok := d[key]
	if !ok {
		return decimal.Zero
	}
	return v.Decimal()
}

// Sum adds the coerced values of keys.
func (d CalcData) Sum(keys ...string) decimal.Decimal {
	total := decimal.Zero
	for _, k := range keys {
		total = total.Add(d.Decimal(k))
	}
	return total
}

// =============================================================================
// FINANCIAL OVERVIEW
// =============================================================================

// FinancialOverview is derived on demand from the income-tax and deductions
// calculators.
type FinancialOverview struct {
	AssigneeID      int64
	Income          CalcData
	Deductions      CalcData
	IncomeTotal     decimal.Decimal
	DeductionsTotal decimal.Decimal
	TaxableIncome   decimal.Decimal
	EstimatedTax    decimal.Decimal
}

// ComputeOverview totals the inputs and estimates tax at TaxRate, rounded to
// cents. Taxable income never goes below zero.
func ComputeOverview(income, deductions CalcData) FinancialOverview {
	incomeTotal := income.Sum(IncomeFields...)
	deductionsTotal := deductions.Sum(DeductionFields...)
	taxable := decimal.Max(decimal.Zero, incomeTotal.Sub(deductionsTotal))

	return FinancialOverview{
		Income:          income,
		Deductions:      deductions,
		IncomeTotal:     incomeTotal,
		DeductionsTotal: deductionsTotal,
		TaxableIncome:   taxable,
		EstimatedTax:    taxable.Mul(TaxRate).Round(2),
	}
}

// =============================================================================
// SERVICE
// =============================================================================

// CalcService reads and writes calculator payloads.
type CalcService struct {
	store CalcStore
}

// NewCalcService creates a CalcService backed by the given store.
func NewCalcService(store CalcStore) *CalcService {
	return &CalcService{store: store}
}

// Get returns the stored payload, or an empty mapping if nothing was saved.
func (s *CalcService) Get(ctx context.Context, assigneeID int64, key string) (CalcData, error) {
	rec, err := s.store.GetCalc(ctx, assigneeID, strings.TrimSpace(key))
	if err != nil {
		return nil, fmt.Errorf("get calc %s: %w", key, err)
	}
	if rec == nil || rec.Data == nil {
		return CalcData{}, nil
	}
	return rec.Data, nil
}

// Put replaces the payload for (assigneeID, key). A nil payload is stored as
// an empty object.
func (s *CalcService) Put(ctx context.Context, assigneeID int64, key string, data CalcData) (*CalcRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, Invalid("calc_key", "Calculator key is required")
	}
	if data == nil {
		data = CalcData{}
	}
	if err := s.requireAssignee(ctx, assigneeID); err != nil {
		return nil, err
	}

	rec, err := s.store.UpsertCalc(ctx, assigneeID, key, data)
	if err != nil {
		return nil, fmt.Errorf("upsert calc %s: %w", key, err)
	}
	return rec, nil
}

// Overview computes the financial overview for an assignee.
func (s *CalcService) Overview(ctx context.Context, assigneeID int64) (*FinancialOverview, error) {
	if err := s.requireAssignee(ctx, assigneeID); err != nil {
		return nil, err
	}

	income, err := s.Get(ctx, assigneeID, CalcIncomeTax)
	if err != nil {
		return nil, err
	}
	deductions, err := s.Get(ctx, assigneeID, CalcDeductions)
	if err != nil {
		return nil, err
	}

	ov := ComputeOverview(income, deductions)
	ov.AssigneeID = assigneeID
	return &ov, nil
}

func (s *CalcService) requireAssignee(ctx context.Context, id int64) error {
	a, err := s.store.GetAssignee(ctx, id)
	if err != nil {
		return fmt.Errorf("get assignee %d: %w", id, err)
	}
	if a == nil {
		return notFound("assignee", id)
	}
	return nil
}
