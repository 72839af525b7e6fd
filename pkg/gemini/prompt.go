package gemini

import (
	"fmt"
	"strings"

	"github.com/dnalab/dnachat/pkg/dna"
)

// buildSystemDirective synthesizes the role-play directive from the profile
// identity, epistemology, and value hierarchy plus the numeric dials, and
// appends the fallacy-detection instruction block.
func buildSystemDirective(profile dna.ModelProfile, settings dna.CustomizationSettings) string {
	header := fmt.Sprintf(
		"IDENTITY: %s. EPISTEMOLOGY: %s. VALUES: %s. AGGRESSIVENESS: %d. SKEPTICISM: %d.",
		profile.Name,
		profile.Metrics.Epistemology,
		strings.Join(profile.Metrics.ValueHierarchy, " > "),
		settings.Aggressiveness,
		settings.Skepticism,
	)

	return header + "\n\n" + fallacyDirective
}

const fallacyDirective = `CRITICAL INSTRUCTIONS FOR FALLACY DETECTION:
1. ACTIVELY DETECT logical fallacies, inconsistencies, and flawed reasoning in BOTH user messages AND your own responses.
2. When you detect a fallacy in a user's argument, explicitly point it out in your responseText and include it in the fallacies array.
3. When you detect a fallacy in your own reasoning, acknowledge it and correct yourself in the responseText.
4. For each detected fallacy, provide: the exact fallacy name, a clear description of why it's a fallacy, and the specific example from the conversation context.
5. Be thorough - check for: ad hominem, straw man, false dilemma, appeal to emotion, hasty generalization, post hoc, begging the question, red herring, slippery slope, and other logical fallacies.
6. Point out inconsistencies in arguments, contradictions, and unsupported claims.
7. Your responseText should naturally incorporate fallacy detection - don't just list them, explain why the reasoning is flawed.`
