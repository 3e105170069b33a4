package signal

// CooldownWindowMS is the minimum elapsed time between two accepted analysis
// calls for the same session, in milliseconds.
const CooldownWindowMS = 7 * 60 * 1000

// Fixed display strings of the generated payload.
const (
	// Title is the headline of every generated suggestion.
	Title = "ANÁLISE CONCLUÍDA POR I.A."
	// ExpirationLabel is the fixed expiration label.
	ExpirationLabel = "1 Minute"
)

// Instruments is the fixed catalog of named instruments.
var Instruments = []string{
	"Google (OTC)", "Apple (OTC)", "Tesla (OTC)", "Bitcoin (OTC)",
	"AUD-JPY (OTC)", "USD-JPY (OTC)", "USD-BRL (OTC)", "GBP-JPY (OTC)",
	"EUR-USD (OTC)", "AUD-CAD (OTC)", "GBP-USD (OTC)", "EUR-GBP (OTC)",
	"EUR-JPY (OTC)",
}

// Directions is the fixed set of direction labels.
var Directions = []string{"🟢 COMPRA", "🔴 VENDA"}
