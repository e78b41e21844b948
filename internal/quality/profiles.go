package quality

// Weights splits the final score across the four category sub-scores.
// Each profile's weights sum to 1.
type Weights struct {
	Technical float64
	Fidelity  float64
	Integrity float64
	Reference float64
}

// Profiles tune the composite toward different collection goals: casual
// listening favors technical quality, professional use favors standing
// against the best known reference, archival favors integrity.
var profiles = map[string]Weights{
	"casual":       {Technical: 0.40, Fidelity: 0.25, Integrity: 0.25, Reference: 0.10},
	"professional": {Technical: 0.25, Fidelity: 0.25, Integrity: 0.20, Reference: 0.30},
	"archival":     {Technical: 0.20, Fidelity: 0.20, Integrity: 0.50, Reference: 0.10},
}

// ProfileWeights resolves a profile name, falling back to casual.
func ProfileWeights(name string) Weights {
	if weights, ok := profiles[name]; ok {
		return weights
	}
	return profiles["casual"]
}
