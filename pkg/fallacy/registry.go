// Package fallacy holds the static reference table for known logical
// fallacies. It is display data only; detection itself happens on the
// backend and arrives as part of a conversational turn.
package fallacy

import (
	"sort"

	"github.com/dnalab/dnachat/pkg/dna"
)

// Entry is one reference definition.
type Entry struct {
	Name        string
	Description string
	Example     string
}

var registry = map[string]Entry{
	"Abusive Ad Hominem":      {Description: "Attacking the character of an opponent rather than their argument.", Example: "You're just a fool, so your theory on economics must be wrong."},
	"Ad Hominem":              {Description: "Attacking the person instead of the argument.", Example: "Why should we listen to a thief's ideas on politics?"},
	"Anecdotal Fallacy":       {Description: "Using personal experience or isolated examples instead of sound arguments.", Example: "My grandfather smoked 40 a day and lived to 100, so smoking isn't bad."},
	"Appeal to Authority":     {Description: "Claiming a statement is true because an authority said so.", Example: "My doctor said I should only eat kale, so it's the only healthy food."},
	"Appeal to Emotion":       {Description: "Manipulating an emotional response in place of a valid argument.", Example: "Think of the children! We must pass this law immediately."},
	"False Dilemma":           {Description: "Presenting only two options when more exist.", Example: "Either you're with us or against us."},
	"Straw Man":               {Description: "Misrepresenting an opponent's argument to make it easier to attack.", Example: "You say we should reduce spending, so you want to eliminate all social programs."},
	"Slippery Slope":          {Description: "Assuming one action will lead to a chain of negative events.", Example: "If we allow same-sex marriage, next people will marry animals."},
	"Hasty Generalization":    {Description: "Drawing a conclusion from insufficient evidence.", Example: "I met two rude people from that city, so everyone there is rude."},
	"Post Hoc":                {Description: "Assuming that because one event followed another, it was caused by it.", Example: "I wore my lucky shirt and won the game, so the shirt caused my victory."},
	"Begging the Question":    {Description: "Assuming the conclusion in the premises.", Example: "God exists because the Bible says so, and the Bible is true because God wrote it."},
	"Red Herring":             {Description: "Introducing an irrelevant topic to divert attention.", Example: "Why discuss taxes when we should focus on national security?"},
	"Burden Shifting":         {Description: "Shifting the burden of proof to the opponent.", Example: "Prove that ghosts don't exist!"},
	"Special Pleading":        {Description: "Applying different standards to similar situations.", Example: "Everyone should follow the rules, except me because I'm special."},
	"Argument from Ignorance": {Description: "Claiming something is true because it hasn't been proven false.", Example: "No one has proven aliens don't exist, so they must exist."},
	"Composition Fallacy":     {Description: "Assuming what is true for a part is true for the whole.", Example: "Every player on this team is a star, so the team is unbeatable."},
	"Division Fallacy":        {Description: "Assuming what is true for the whole is true for every part.", Example: "This company is great, so every employee must be great."},
	"Bandwagon Fallacy":       {Description: "Following the crowd regardless of logic.", Example: "All my friends are doing it, so it's fine."},
	"Genetic Fallacy":         {Description: "Judging something based on its origins rather than its current state.", Example: "This idea came from a cult, so it must be bad."},
	"Tu Quoque":               {Description: "Dismissing someone's argument because they don't follow it themselves.", Example: "You can't tell me to quit smoking when you smoke too."},
}

// All returns every reference entry sorted by name.
func All() []Entry {
	out := make([]Entry, 0, len(registry))
	for name, e := range registry {
		e.Name = name
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup resolves a reference entry by name.
func Lookup(name string) (Entry, bool) {
	e, ok := registry[name]
	if ok {
		e.Name = name
	}
	return e, ok
}

// Describe resolves display data for a detected fallacy, preferring the
// reference table and falling back to whatever the backend reported.
func Describe(f dna.DetectedFallacy) Entry {
	if e, ok := Lookup(f.Name); ok {
		if f.ExampleFromContext != "" {
			e.Example = f.ExampleFromContext
		}
		return e
	}
	desc := f.Description
	if desc == "" {
		desc = "A logical fallacy detected in the argument."
	}
	example := f.ExampleFromContext
	if example == "" {
		example = "No example available."
	}
	return Entry{Name: f.Name, Description: desc, Example: example}
}
