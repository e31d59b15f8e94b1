package models

import "strings"

// IndicatorKind identifies one of the tracked macroeconomic series.
type IndicatorKind string

const (
	IndicatorIPCA         IndicatorKind = "ipca"
	IndicatorSelic        IndicatorKind = "selic"
	IndicatorIGPM         IndicatorKind = "igpm"
	IndicatorPIB          IndicatorKind = "pib"
	IndicatorDolar        IndicatorKind = "dolar"
	IndicatorBalanca      IndicatorKind = "balanca_comercial"
	IndicatorDesemprego   IndicatorKind = "desemprego"
	IndicatorUnrecognized IndicatorKind = "unrecognized"
)

// AllIndicators lists every tracked indicator in display order.
var AllIndicators = []IndicatorKind{
	IndicatorIPCA,
	IndicatorSelic,
	IndicatorIGPM,
	IndicatorPIB,
	IndicatorDolar,
	IndicatorBalanca,
	IndicatorDesemprego,
}

// DefaultIndicator is the fallback kind used where a total mapping is
// required and the input could not be recognized.
const DefaultIndicator = IndicatorSelic

// indicatorAliases maps free-form identifiers seen in upstream responses and
// generated text back to canonical kinds.
var indicatorAliases = map[string]IndicatorKind{
	"ipca":              IndicatorIPCA,
	"selic":             IndicatorSelic,
	"igpm":              IndicatorIGPM,
	"igp-m":             IndicatorIGPM,
	"pib":               IndicatorPIB,
	"gdp":               IndicatorPIB,
	"dolar":             IndicatorDolar,
	"dólar":             IndicatorDolar,
	"usd":               IndicatorDolar,
	"cambio":            IndicatorDolar,
	"balanca_comercial": IndicatorBalanca,
	"balança comercial": IndicatorBalanca,
	"balanca comercial": IndicatorBalanca,
	"balanca":           IndicatorBalanca,
	"desemprego":        IndicatorDesemprego,
	"unemployment":      IndicatorDesemprego,
}

// CanonicalIndicator resolves a free-form indicator identifier to a canonical
// kind. It is total: unknown identifiers resolve to IndicatorUnrecognized so
// the fallback stays auditable at call sites.
func CanonicalIndicator(raw string) IndicatorKind {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if kind, ok := indicatorAliases[normalized]; ok {
		return kind
	}
	return IndicatorUnrecognized
}

// CanonicalIndicatorOrDefault resolves like CanonicalIndicator but maps
// unrecognized identifiers to DefaultIndicator. Used where rejecting input is
// not an option (generated insight references).
func CanonicalIndicatorOrDefault(raw string) IndicatorKind {
	if kind := CanonicalIndicator(raw); kind != IndicatorUnrecognized {
		return kind
	}
	return DefaultIndicator
}

// IsValid reports whether the kind is one of the seven tracked indicators.
func (k IndicatorKind) IsValid() bool {
	for _, kind := range AllIndicators {
		if k == kind {
			return true
		}
	}
	return false
}

func (k IndicatorKind) String() string {
	return string(k)
}

// ShortName returns the display abbreviation used in digests and
// notifications.
func (k IndicatorKind) ShortName() string {
	switch k {
	case IndicatorIPCA:
		return "IPCA"
	case IndicatorSelic:
		return "Selic"
	case IndicatorIGPM:
		return "IGP-M"
	case IndicatorPIB:
		return "PIB"
	case IndicatorDolar:
		return "USD/BRL"
	case IndicatorBalanca:
		return "Balança Comercial"
	case IndicatorDesemprego:
		return "Desemprego"
	default:
		return string(k)
	}
}

// Unit returns the measurement unit shown next to values.
func (k IndicatorKind) Unit() string {
	switch k {
	case IndicatorIPCA, IndicatorIGPM, IndicatorPIB, IndicatorDesemprego:
		return "%"
	case IndicatorSelic:
		return "% a.a."
	case IndicatorDolar:
		return "R$"
	case IndicatorBalanca:
		return "US$ mi"
	default:
		return ""
	}
}

// InvertedGood reports whether a rising series is bad news for this
// indicator. The trend classification itself stays direction-agnostic; this
// flag only inverts the qualitative reading downstream.
func InvertedGood(k IndicatorKind) bool {
	switch k {
	case IndicatorDesemprego, IndicatorIPCA, IndicatorIGPM:
		return true
	default:
		return false
	}
}
