package ai

import "github.com/kapu/lyricsense-go/internal/constants"

// ModelPreset represents the model usage preset
type ModelPreset string

const (
	PresetExplain  ModelPreset = "explain"  // 짧은 단어 설명
	PresetAnalysis ModelPreset = "analysis" // 곡 전체 문화 분석 (JSON)
)

// ModelConfig holds model configuration
type ModelConfig struct {
	Temperature     float32
	TopP            float32
	MaxOutputTokens int
}

// Prompt is a role-split chat prompt. System fixes the persona, User carries the request.
type Prompt struct {
	System string
	User   string
}

type ProviderResult struct {
	Text  string
	Model string
}

// GenerateMetadata contains metadata about the generation
type GenerateMetadata struct {
	Provider     string
	Model        string
	UsedFallback bool
}

// GenerateOptions holds options for AI generation
type GenerateOptions struct {
	Model     string
	JSONMode  bool
	Overrides *ModelConfig
}

// GetPresetConfig returns the configuration for a preset
func GetPresetConfig(preset ModelPreset) ModelConfig {
	switch preset {
	case PresetExplain:
		return ModelConfig{
			Temperature:     0.7,
			TopP:            1,
			MaxOutputTokens: constants.LLMLimits.ExplainMaxTokens,
		}
	case PresetAnalysis:
		return ModelConfig{
			Temperature:     constants.LLMLimits.AnalysisTemperature,
			TopP:            1,
			MaxOutputTokens: constants.LLMLimits.AnalysisMaxTokens,
		}
	default:
		return GetPresetConfig(PresetExplain)
	}
}

func resolveConfig(preset ModelPreset, opts *GenerateOptions) ModelConfig {
	config := GetPresetConfig(preset)
	if opts == nil || opts.Overrides == nil {
		return config
	}
	if opts.Overrides.Temperature > 0 {
		config.Temperature = opts.Overrides.Temperature
	}
	if opts.Overrides.TopP > 0 {
		config.TopP = opts.Overrides.TopP
	}
	if opts.Overrides.MaxOutputTokens > 0 {
		config.MaxOutputTokens = opts.Overrides.MaxOutputTokens
	}
	return config
}
