package prompt

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

var (
	tokenizerCache   = make(map[string]*tiktoken.Tiktoken)
	tokenizerCacheMu sync.RWMutex
)

// PreloadTokenizer loads the BPE ranks for model into the cache. tiktoken fetches
// them over the network on first use, so this runs at startup and never on the
// request path.
func PreloadTokenizer(model string, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tokenizerCacheMu.Lock()
	defer tokenizerCacheMu.Unlock()

	if _, ok := tokenizerCache[model]; ok {
		return
	}

	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tkm, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			logger.Warn("Tokenizer unavailable, lyrics budget falls back to rune count",
				zap.String("model", model),
				zap.Error(err),
			)
			return
		}
	}

	tokenizerCache[model] = tkm
	logger.Debug("Tokenizer loaded", zap.String("model", model))
}

func cachedTokenizer(model string) (*tiktoken.Tiktoken, bool) {
	tokenizerCacheMu.RLock()
	defer tokenizerCacheMu.RUnlock()
	tkm, ok := tokenizerCache[model]
	return tkm, ok
}

// LyricsBudget keeps song lyrics within the analysis prompt's token allowance.
type LyricsBudget struct {
	Model     string
	MaxTokens int
	// Lyrics at or under this many runes are never tokenized.
	RuneThreshold int
}

// Fit returns lyrics cut down to the token budget and whether anything was cut.
// Short lyrics skip the tokenizer; until a tokenizer for Model has been preloaded
// the cut falls back to the rune threshold.
func (b LyricsBudget) Fit(lyrics string) (string, bool) {
	runes := []rune(lyrics)
	if len(runes) <= b.RuneThreshold {
		return lyrics, false
	}

	tkm, ok := cachedTokenizer(b.Model)
	if !ok {
		return string(runes[:b.RuneThreshold]), true
	}

	tokens := tkm.Encode(lyrics, nil, nil)
	if len(tokens) <= b.MaxTokens {
		return lyrics, false
	}
	return tkm.Decode(tokens[:b.MaxTokens]), true
}
