package core

import (
	"math"
	"time"
)

// Input field names, as they appear on the wire.
const (
	FieldBasicSalary = "basic_salary"
	FieldIncentives  = "incentives"
	FieldSpends      = "spends"
	FieldRecharge    = "recharge"
	FieldGrocery     = "grocery"
)

// InputFields lists the required input fields in canonical order.
var InputFields = []string{
	FieldBasicSalary,
	FieldIncentives,
	FieldSpends,
	FieldRecharge,
	FieldGrocery,
}

// MaxRecentReports caps the number of reports a listing can return.
const MaxRecentReports = 50

type (
	// SalaryInput holds the five raw amounts a report is computed from.
	SalaryInput struct {
		BasicSalary float64 `json:"basic_salary" yaml:"basic_salary"`
		Incentives  float64 `json:"incentives" yaml:"incentives"`
		Spends      float64 `json:"spends" yaml:"spends"`
		Recharge    float64 `json:"recharge" yaml:"recharge"`
		Grocery     float64 `json:"grocery" yaml:"grocery"`
	}

	// SalaryReport is the derived breakdown of a SalaryInput plus the optional chart.
	// Chart is a base64 encoded PNG; ChartError is set instead when rendering failed.
	SalaryReport struct {
		TotalIncome       float64 `json:"total_income" yaml:"total_income"`
		TotalExpenses     float64 `json:"total_expenses" yaml:"total_expenses"`
		NetSavings        float64 `json:"net_savings" yaml:"net_savings"`
		SavingsPercentage float64 `json:"savings_percentage" yaml:"savings_percentage"`
		Chart             string  `json:"chart,omitempty" yaml:"chart,omitempty"`
		ChartError        string  `json:"chart_error,omitempty" yaml:"chart_error,omitempty"`
	}

	// StoredReport is a persisted SalaryReport with its store metadata.
	StoredReport struct {
		ID            string      `json:"id" yaml:"id"`
		CreatedAt     time.Time   `json:"created_at" yaml:"created_at"`
		SalaryReport  `yaml:",inline"`
		Input         SalaryInput `json:"input" yaml:"input"`
		SourceAddress string      `json:"source_address,omitempty" yaml:"source_address,omitempty"`
	}
)

// Values returns the input amounts keyed by field name.
func (in SalaryInput) Values() map[string]float64 {
	return map[string]float64{
		FieldBasicSalary: in.BasicSalary,
		FieldIncentives:  in.Incentives,
		FieldSpends:      in.Spends,
		FieldRecharge:    in.Recharge,
		FieldGrocery:     in.Grocery,
	}
}

// Validate rejects amounts that are NaN or infinite.
func (in SalaryInput) Validate() error {
	values := in.Values()
	var bad []string
	for _, name := range InputFields {
		if v := values[name]; math.IsNaN(v) || math.IsInf(v, 0) {
			bad = append(bad, name)
		}
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad, Reason: "fields must be finite numbers"}
	}
	return nil
}

// HasChart reports whether a rendered chart is attached.
func (r SalaryReport) HasChart() bool {
	return r.Chart != ""
}

// ClampLimit maps a requested listing size onto (0, MaxRecentReports].
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxRecentReports {
		return MaxRecentReports
	}
	return limit
}
