package domain

import "strings"

type EnrichmentKind string

const (
	EnrichmentTranslate EnrichmentKind = "translate"
	EnrichmentRomanize  EnrichmentKind = "romanize"
	EnrichmentExplain   EnrichmentKind = "explain"
)

func (k EnrichmentKind) String() string {
	return string(k)
}

func (k EnrichmentKind) IsValid() bool {
	switch k {
	case EnrichmentTranslate, EnrichmentRomanize, EnrichmentExplain:
		return true
	default:
		return false
	}
}

// AllEnrichmentKinds is the default set for a combined enrichment request.
func AllEnrichmentKinds() []EnrichmentKind {
	return []EnrichmentKind{EnrichmentTranslate, EnrichmentRomanize, EnrichmentExplain}
}

type EnrichmentRequest struct {
	Text       string           `json:"text"`
	Context    string           `json:"context"`
	TargetLang string           `json:"target_lang"`
	Kinds      []EnrichmentKind `json:"kinds"`
}

// ResolvedKinds returns the requested kinds lower-cased and de-duplicated,
// or every kind when none were requested.
func (r EnrichmentRequest) ResolvedKinds() []EnrichmentKind {
	if len(r.Kinds) == 0 {
		return AllEnrichmentKinds()
	}
	seen := make(map[EnrichmentKind]struct{}, len(r.Kinds))
	kinds := make([]EnrichmentKind, 0, len(r.Kinds))
	for _, k := range r.Kinds {
		k = EnrichmentKind(strings.ToLower(strings.TrimSpace(string(k))))
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kinds = append(kinds, k)
	}
	return kinds
}

type TranslationResult struct {
	TranslatedText string `json:"translation"`
	SourceLang     string `json:"source_lang,omitempty"`
	TargetLang     string `json:"target_lang"`
}

type RomanizationResult struct {
	RomanizedText string `json:"romanization"`
}

type WordExplanation struct {
	Word      string `json:"word"`
	Context   string `json:"context"`
	Text      string `json:"explanation"`
	Truncated bool   `json:"truncated"`
	Model     string `json:"model,omitempty"`
}

type CulturalAnalysis struct {
	Roots     string `json:"roots"`
	Metaphors string `json:"metaphors"`
	Impact    string `json:"impact"`
}

type SlangTerm struct {
	Term    string `json:"term"`
	Meaning string `json:"meaning"`
	Origin  string `json:"origin"`
	Example string `json:"example"`
}

// AnalysisFailedMessage is the envelope text returned when model output is not valid JSON.
const AnalysisFailedMessage = "Analysis failed - invalid response format"

type ComprehensiveAnalysis struct {
	CulturalAnalysis CulturalAnalysis `json:"cultural_analysis"`
	SlangTerms       []SlangTerm      `json:"slang_terms"`
	Failed           bool             `json:"-"`
	FailureReason    string           `json:"-"`
}

// ErrorEnvelope is the wire shape of a failed provider call.
type ErrorEnvelope struct {
	Error    string `json:"error"`
	Detail   string `json:"detail,omitempty"`
	Provider string `json:"provider,omitempty"`
}

type EnrichmentResult struct {
	Translation  *TranslationResult               `json:"translation,omitempty"`
	Romanization *RomanizationResult              `json:"romanization,omitempty"`
	Explanation  *WordExplanation                 `json:"explanation,omitempty"`
	Errors       map[EnrichmentKind]ErrorEnvelope `json:"errors,omitempty"`
}
