package dna

// SeedProfileID identifies the built-in profile that is guaranteed to exist
// in every reachable registry state.
const SeedProfileID = "dna-tjumps-v1"

// SeedProfile returns a fresh copy of the built-in T-JUMPS profile. Callers
// get an independent value; mutating the copy never affects later seeds.
func SeedProfile() ModelProfile {
	return ModelProfile{
		ID:      SeedProfileID,
		Name:    "T-JUMPS.rtf",
		Summary: "Debate specialist focused on foundational epistemology.",
		Metrics: DNAMetrics{
			BehavioralTraits:     []string{"Persistent", "Analytical"},
			Epistemology:         "Foundational Presuppositionalism.",
			MoralAxioms:          []string{"Logic is transcendental"},
			RhetoricalStructure:  "Socratic questioning.",
			LinguisticPatterns:   []string{`"Prove the premise"`},
			CognitiveBiases:      []string{"Logical Rigor Bias"},
			ValueHierarchy:       []string{"Logic", "Consistency"},
			EmotionalConstraints: "Highly modulated.",
		},
	}
}
