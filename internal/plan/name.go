package plan

import "strings"

const (
	planNamePrefix = "PLANO DE INSPEÇÃO - "
	noVoltage      = "N/A"
)

// GeneratePlanName derives the plan name from its products. An empty result
// means the name is left to manual entry.
func GeneratePlanName(products []Product) string {
	if len(products) == 0 {
		return ""
	}

	name := planNamePrefix + products[0].Description
	if len(products) == 1 {
		return name
	}

	var voltages []string
	seen := make(map[string]bool)
	for _, p := range products {
		v := strings.TrimSpace(p.Voltage)
		if v == "" || v == noVoltage || seen[v] {
			continue
		}
		seen[v] = true
		voltages = append(voltages, v)
	}

	if len(voltages) > 0 {
		name += " (" + strings.Join(voltages, " / ") + ")"
	}
	return name
}

// FormatVoltage normalises multi-voltage strings such as "127V/220V" or
// "110V-220V" to "127V / 220V".
func FormatVoltage(voltage string) string {
	if !strings.ContainsAny(voltage, "/-,") {
		return voltage
	}

	parts := strings.FieldsFunc(voltage, func(r rune) bool {
		return r == '/' || r == '-' || r == ','
	})
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, " / ")
}
