package core

import (
	"encoding/json"
)

// ParseInput builds a SalaryInput from a decoded request mapping.
//
// All five fields must be present and numeric. A JSON null counts as missing.
// Extra keys are ignored. Every missing field is named in the returned
// ValidationError, in canonical order.
func ParseInput(raw map[string]any) (SalaryInput, error) {
	var missing, invalid []string
	values := make(map[string]float64, len(InputFields))

	for _, name := range InputFields {
		v, ok := raw[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			invalid = append(invalid, name)
			continue
		}
		values[name] = f
	}

	if len(missing) > 0 {
		return SalaryInput{}, &ValidationError{Fields: missing, Reason: "missing required fields"}
	}
	if len(invalid) > 0 {
		return SalaryInput{}, &ValidationError{Fields: invalid, Reason: "fields must be numeric"}
	}

	in := SalaryInput{
		BasicSalary: values[FieldBasicSalary],
		Incentives:  values[FieldIncentives],
		Spends:      values[FieldSpends],
		Recharge:    values[FieldRecharge],
		Grocery:     values[FieldGrocery],
	}
	if err := in.Validate(); err != nil {
		return SalaryInput{}, err
	}
	return in, nil
}

// toFloat accepts the numeric types a JSON, YAML or flag decoder can produce.
// Booleans and strings are not numbers.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
