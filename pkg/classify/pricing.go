package classify

import "strings"

// Pricing holds per-million-token USD rates for one model.
type Pricing struct {
	Input  float64
	Output float64
}

// PricingTable maps normalized model names to rates.
type PricingTable map[string]Pricing

// DefaultPricing covers the models the pipeline is expected to run against.
// Unknown models cost zero; the summary still reports token counts.
func DefaultPricing() PricingTable {
	return PricingTable{
		"gpt-4o":            {Input: 2.50, Output: 10.00},
		"gpt-4o-mini":       {Input: 0.15, Output: 0.60},
		"gpt-4.1":           {Input: 2.00, Output: 8.00},
		"gpt-4.1-mini":      {Input: 0.40, Output: 1.60},
		"gpt-4.1-nano":      {Input: 0.10, Output: 0.40},
		"claude-haiku-4.5":  {Input: 1.00, Output: 5.00},
		"claude-sonnet-4.5": {Input: 3.00, Output: 15.00},
		"claude-3.5-haiku":  {Input: 0.80, Output: 4.00},
	}
}

// CostForTokens computes the USD cost of one request.
func (t PricingTable) CostForTokens(model string, inputTokens, outputTokens int64) float64 {
	price, ok := t[normalizeModel(model)]
	if !ok {
		price, ok = t[model]
	}
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000.0*price.Input +
		float64(outputTokens)/1_000_000.0*price.Output
}

// normalizeModel strips date suffixes and maps dashed version segments to
// dotted ones so "claude-haiku-4-5-20251001" prices as "claude-haiku-4.5".
func normalizeModel(model string) string {
	normalized := strings.ToLower(strings.TrimSpace(model))
	if idx := strings.LastIndex(normalized, "-"); idx != -1 {
		suffix := normalized[idx+1:]
		if len(suffix) == 8 && isDigits(suffix) {
			normalized = normalized[:idx]
		}
	}
	normalized = strings.ReplaceAll(normalized, "-4-5", "-4.5")
	normalized = strings.ReplaceAll(normalized, "-4-1", "-4.1")
	normalized = strings.ReplaceAll(normalized, "-3-5", "-3.5")
	return normalized
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
