package core

import "math"

// Calculate derives the report metrics from in. The chart is left empty.
//
// A zero total income is rejected: the savings percentage has no meaning
// without income, so the caller gets a ValidationError instead of NaN or Inf.
func Calculate(in SalaryInput) (SalaryReport, error) {
	if err := in.Validate(); err != nil {
		return SalaryReport{}, err
	}

	totalIncome := in.BasicSalary + in.Incentives
	totalExpenses := in.Spends + in.Recharge + in.Grocery
	if totalIncome == 0 {
		return SalaryReport{}, &ValidationError{
			Fields: []string{"total_income"},
			Reason: "savings percentage is undefined for zero income",
		}
	}

	report := SalaryReport{
		TotalIncome:   totalIncome,
		TotalExpenses: totalExpenses,
		NetSavings:    totalIncome - totalExpenses,
	}
	report.SavingsPercentage = report.NetSavings / report.TotalIncome * 100

	derived := []struct {
		name  string
		value float64
	}{
		{"total_income", report.TotalIncome},
		{"total_expenses", report.TotalExpenses},
		{"net_savings", report.NetSavings},
		{"savings_percentage", report.SavingsPercentage},
	}
	var overflow []string
	for _, d := range derived {
		if math.IsInf(d.value, 0) || math.IsNaN(d.value) {
			overflow = append(overflow, d.name)
		}
	}
	if len(overflow) > 0 {
		return SalaryReport{}, &ValidationError{Fields: overflow, Reason: "amounts overflow"}
	}

	return report, nil
}
