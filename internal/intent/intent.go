package intent

import "strings"

// Intent is a closed-set label describing what action a user message requests.
// Classification output is free text, so every raw value must go through
// Parse before use.
type Intent string

const (
	RecommendedProducts Intent = "RecommendedProducts"
	CreateAccount       Intent = "CreateAccount"
	WantToPurchase      Intent = "WantToPurchase"
	NewCustomer         Intent = "NewCustomer"
	ProvideDetails      Intent = "ProvideDetails"
	DetailsReceived     Intent = "DetailsReceived"
	Unknown             Intent = "Unknown"
)

// All lists the closed intent set in its canonical order.
func All() []Intent {
	return []Intent{
		RecommendedProducts,
		CreateAccount,
		WantToPurchase,
		NewCustomer,
		ProvideDetails,
		DetailsReceived,
		Unknown,
	}
}

// Parse trims the raw classification output and matches it case-sensitively
// against the closed set. Anything else resolves to Unknown; that is a
// first-class outcome, not an error.
func Parse(raw string) Intent {
	trimmed := strings.TrimSpace(raw)
	for _, it := range All() {
		if trimmed == string(it) {
			return it
		}
	}
	return Unknown
}
