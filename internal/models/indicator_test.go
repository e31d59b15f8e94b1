package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalIndicator(t *testing.T) {
	tests := []struct {
		input    string
		expected IndicatorKind
	}{
		{"selic", IndicatorSelic},
		{"SELIC", IndicatorSelic},
		{"  ipca  ", IndicatorIPCA},
		{"igp-m", IndicatorIGPM},
		{"gdp", IndicatorPIB},
		{"dólar", IndicatorDolar},
		{"usd", IndicatorDolar},
		{"balança comercial", IndicatorBalanca},
		{"unemployment", IndicatorDesemprego},
		{"bitcoin", IndicatorUnrecognized},
		{"", IndicatorUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanonicalIndicator(tt.input))
		})
	}
}

func TestCanonicalIndicatorOrDefault(t *testing.T) {
	assert.Equal(t, IndicatorIPCA, CanonicalIndicatorOrDefault("ipca"))
	// The mapping is total: anything unrecognized lands on the default.
	assert.Equal(t, DefaultIndicator, CanonicalIndicatorOrDefault("bitcoin"))
	assert.Equal(t, DefaultIndicator, CanonicalIndicatorOrDefault(""))
}

func TestIndicatorIsValid(t *testing.T) {
	for _, kind := range AllIndicators {
		assert.True(t, kind.IsValid(), "expected %s to be valid", kind)
	}
	assert.False(t, IndicatorUnrecognized.IsValid())
	assert.False(t, IndicatorKind("bitcoin").IsValid())
}

func TestInvertedGood(t *testing.T) {
	assert.True(t, InvertedGood(IndicatorDesemprego))
	assert.True(t, InvertedGood(IndicatorIPCA))
	assert.True(t, InvertedGood(IndicatorIGPM))
	assert.False(t, InvertedGood(IndicatorSelic))
	assert.False(t, InvertedGood(IndicatorPIB))
	assert.False(t, InvertedGood(IndicatorDolar))
}

func TestShortNameAndUnitAreDefined(t *testing.T) {
	for _, kind := range AllIndicators {
		assert.NotEmpty(t, kind.ShortName())
		assert.NotEmpty(t, kind.Unit())
	}
}
