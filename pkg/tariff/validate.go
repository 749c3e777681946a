package tariff

import "math"

// Validation messages are shown to users as-is.
const (
	msgInvalidNumber   = "Bitte geben Sie eine gültige Zahl ein."
	msgNegativeWatts   = "Die Leistung (Watt) darf nicht negativ sein."
	msgNegativeUsage   = "Die Nutzungsdauer darf nicht negativ sein."
	msgNegativePrice   = "Der Strompreis darf nicht negativ sein."
	msgNegativeConsume = "Der Verbrauch darf nicht negativ sein."
	msgUnknownPeriod   = "Unbekannter Nutzungszeitraum."
	msgInvalidWindow   = "Ungültiges Zeitfenster (Stunden 0 bis 23)."
	msgInvalidBattery  = "Bitte geben Sie eine gültige Batteriekapazität ein."
	msgInvalidCharges  = "Bitte geben Sie eine gültige Ladehäufigkeit pro Woche ein."
	msgInvalidEVPrice  = "Bitte geben Sie einen gültigen Strompreis ein."
)

// sanitize returns v if it is a finite non-negative number. Otherwise it
// records a message and returns 0 so the calculation can continue.
func sanitize(v float64, negativeMsg string, validation *[]string) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		*validation = append(*validation, msgInvalidNumber)
		return 0
	}
	if v < 0 {
		*validation = append(*validation, negativeMsg)
		return 0
	}
	return v
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
