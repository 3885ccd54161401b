package convert

import (
	"math"

	"github.com/paularlott/toon-mcp/toon"
)

// FormatStats is the size of one representation.
type FormatStats struct {
	Bytes        int `json:"bytes"`
	TokensApprox int `json:"tokens_approx"`
}

// Savings is the relative reduction of TOON against JSON, in percent.
type Savings struct {
	BytesPercent  float64 `json:"bytes_percent"`
	TokensPercent float64 `json:"tokens_percent"`
}

// StatsResult compares the JSON and TOON forms of the same value.
type StatsResult struct {
	JSON    FormatStats `json:"json"`
	TOON    FormatStats `json:"toon"`
	Savings Savings     `json:"savings"`
}

// ComputeStats serializes payload as compact JSON and as TOON and compares
// them. The encode options only affect the TOON side.
func ComputeStats(payload any, in EncodeOptionsInput) (StatsResult, error) {
	value, err := ParseInput(payload)
	if err != nil {
		return StatsResult{}, err
	}

	ref, err := FormatJSON(value, OutputJSON)
	if err != nil {
		return StatsResult{}, err
	}
	compact, err := toon.EncodeWithOptions(value, ResolveEncodeOptions(in))
	if err != nil {
		return StatsResult{}, EncodeFailed(err)
	}

	jsonStats := FormatStats{Bytes: len(ref), TokensApprox: EstimateTokens(ref)}
	toonStats := FormatStats{Bytes: len(compact), TokensApprox: EstimateTokens(compact)}

	return StatsResult{
		JSON: jsonStats,
		TOON: toonStats,
		Savings: Savings{
			BytesPercent:  savingsPercent(jsonStats.Bytes, toonStats.Bytes),
			TokensPercent: savingsPercent(jsonStats.TokensApprox, toonStats.TokensApprox),
		},
	}, nil
}

// savingsPercent is rounded to two decimals and is zero for an empty reference.
func savingsPercent(ref, compact int) float64 {
	if ref == 0 {
		return 0
	}
	pct := float64(ref-compact) / float64(ref) * 100
	return math.Round(pct*100) / 100
}
