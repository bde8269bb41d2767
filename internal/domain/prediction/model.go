package prediction

// Band is the coarse likelihood label shown next to a score.
type Band string

const (
	BandHigh     Band = "high"
	BandModerate Band = "moderate"
	BandLow      Band = "low"
	BandMinimal  Band = "minimal"
)

// BandFor maps a likelihood in [0,100] to its band.
func BandFor(likelihood int) Band {
	switch {
	case likelihood >= 70:
		return BandHigh
	case likelihood >= 50:
		return BandModerate
	case likelihood >= 30:
		return BandLow
	default:
		return BandMinimal
	}
}

// Disclaimer accompanies every prediction result.
const Disclaimer = "These predictions are for informational purposes only and are not a diagnosis. " +
	"Please consult a qualified healthcare professional for proper evaluation."

// ScoredCondition is one ranked candidate for a set of reported symptoms.
type ScoredCondition struct {
	Condition       string   `json:"condition"`
	Description     string   `json:"description,omitempty"`
	Likelihood      int      `json:"likelihood"`
	Band            Band     `json:"band"`
	MatchedSymptoms []string `json:"matched_symptoms"`
	Recommendations []string `json:"recommendations"`
}
