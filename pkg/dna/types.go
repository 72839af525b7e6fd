package dna

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message roles. Field names and values round-trip as literal JSON against
// both the durable store and the generation backend.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// DNAMetrics is the structured personality extraction for a profile.
type DNAMetrics struct {
	BehavioralTraits     []string `json:"behavioralTraits"`
	Epistemology         string   `json:"epistemology"`
	MoralAxioms          []string `json:"moralAxioms"`
	RhetoricalStructure  string   `json:"rhetoricalStructure"`
	LinguisticPatterns   []string `json:"linguisticPatterns"`
	CognitiveBiases      []string `json:"cognitiveBiases"`
	ValueHierarchy       []string `json:"valueHierarchy"`
	EmotionalConstraints string   `json:"emotionalConstraints"`
}

// EmptyMetrics is the canonical all-empty DNAMetrics used when extraction
// degrades. Slices are empty, never nil, so the stored JSON carries [].
func EmptyMetrics() DNAMetrics {
	return DNAMetrics{
		BehavioralTraits:   []string{},
		MoralAxioms:        []string{},
		LinguisticPatterns: []string{},
		CognitiveBiases:    []string{},
		ValueHierarchy:     []string{},
	}
}

func (m DNAMetrics) clone() DNAMetrics {
	out := m
	out.BehavioralTraits = append([]string{}, m.BehavioralTraits...)
	out.MoralAxioms = append([]string{}, m.MoralAxioms...)
	out.LinguisticPatterns = append([]string{}, m.LinguisticPatterns...)
	out.CognitiveBiases = append([]string{}, m.CognitiveBiases...)
	out.ValueHierarchy = append([]string{}, m.ValueHierarchy...)
	return out
}

// Normalize replaces nil slices with empty ones after a JSON decode.
func (m *DNAMetrics) Normalize() {
	if m.BehavioralTraits == nil {
		m.BehavioralTraits = []string{}
	}
	if m.MoralAxioms == nil {
		m.MoralAxioms = []string{}
	}
	if m.LinguisticPatterns == nil {
		m.LinguisticPatterns = []string{}
	}
	if m.CognitiveBiases == nil {
		m.CognitiveBiases = []string{}
	}
	if m.ValueHierarchy == nil {
		m.ValueHierarchy = []string{}
	}
}

// ModelProfile is a persona definition the backend role-plays. Profiles are
// immutable once created; editing is "create new" via re-upload.
type ModelProfile struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Summary string     `json:"summary"`
	Metrics DNAMetrics `json:"metrics"`
}

func (p ModelProfile) Clone() ModelProfile {
	out := p
	out.Metrics = p.Metrics.clone()
	return out
}

// NewProfileID mints a fresh unique profile identifier.
func NewProfileID() string {
	return "dna-" + uuid.NewString()
}

// UserProfile is the user's own persona. Single active instance, independent
// of the model-profile registry, preserved across purge.
type UserProfile struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Persona    string      `json:"persona"`
	DNAMetrics *DNAMetrics `json:"dnaMetrics,omitempty"`
	Summary    string      `json:"summary,omitempty"`
	CreatedAt  int64       `json:"createdAt"`
}

// DetectedFallacy is one flawed-reasoning finding reported by the backend.
type DetectedFallacy struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	ExampleFromContext string `json:"exampleFromContext"`
}

// Message is one conversation entry. Append-only; never mutated after
// creation. Insertion order is authoritative, timestamps are informational.
type Message struct {
	Role              string            `json:"role"`
	Content           string            `json:"content"`
	Timestamp         int64             `json:"timestamp"`
	DetectedFallacies []DetectedFallacy `json:"detectedFallacies,omitempty"`
}

// NewMessage stamps a message with the current wall clock.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now().UnixMilli()}
}

// CustomizationSettings are the global behavioral dials (0-100) plus the TTS
// toggle. Single instance, not per-profile.
type CustomizationSettings struct {
	Aggressiveness          int  `json:"aggressiveness"`
	Formality               int  `json:"formality"`
	EmotionalExpressiveness int  `json:"emotionalExpressiveness"`
	Verbosity               int  `json:"verbosity"`
	AnalyticalDepth         int  `json:"analyticalDepth"`
	Skepticism              int  `json:"skepticism"`
	Abstractness            int  `json:"abstractness"`
	IntellectualDensity     int  `json:"intellectualDensity"`
	TTSEnabled              bool `json:"ttsEnabled"`
}

func DefaultSettings() CustomizationSettings {
	return CustomizationSettings{
		Aggressiveness:          80,
		Formality:               70,
		EmotionalExpressiveness: 30,
		Verbosity:               50,
		AnalyticalDepth:         80,
		Skepticism:              70,
		Abstractness:            40,
		IntellectualDensity:     75,
		TTSEnabled:              false,
	}
}

// SettingsPatch is a partial settings mutation. Nil fields are retained.
type SettingsPatch struct {
	Aggressiveness          *int
	Formality               *int
	EmotionalExpressiveness *int
	Verbosity               *int
	AnalyticalDepth         *int
	Skepticism              *int
	Abstractness            *int
	IntellectualDensity     *int
	TTSEnabled              *bool
}

// Apply merges the patch into s, clamping dial values to 0-100.
func (s *CustomizationSettings) Apply(patch SettingsPatch) {
	set := func(dst *int, src *int) {
		if src == nil {
			return
		}
		v := *src
		if v < 0 {
			v = 0
		}
		if v > 100 {
			v = 100
		}
		*dst = v
	}
	set(&s.Aggressiveness, patch.Aggressiveness)
	set(&s.Formality, patch.Formality)
	set(&s.EmotionalExpressiveness, patch.EmotionalExpressiveness)
	set(&s.Verbosity, patch.Verbosity)
	set(&s.AnalyticalDepth, patch.AnalyticalDepth)
	set(&s.Skepticism, patch.Skepticism)
	set(&s.Abstractness, patch.Abstractness)
	set(&s.IntellectualDensity, patch.IntellectualDensity)
	if patch.TTSEnabled != nil {
		s.TTSEnabled = *patch.TTSEnabled
	}
}

// TrimDisplayName normalizes a user-supplied profile name.
func TrimDisplayName(name string) string {
	return strings.TrimSpace(name)
}
