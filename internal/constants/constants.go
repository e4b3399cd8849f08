package constants

import "time"

var ProviderNames = struct {
	Spotify         string
	Genius          string
	GoogleTranslate string
	Romanizer       string
	OpenAI          string
	Gemini          string
	GoogleTTS       string
	OpenAITTS       string
}{
	Spotify:         "spotify",
	Genius:          "genius",
	GoogleTranslate: "google-translate",
	Romanizer:       "romanizer",
	OpenAI:          "openai",
	Gemini:          "gemini",
	GoogleTTS:       "google-tts",
	OpenAITTS:       "openai-tts",
}

var APIConfig = struct {
	SpotifyBaseURL   string
	SpotifyTokenURL  string
	GeniusBaseURL    string
	GoogleTTSBaseURL string
	UserAgent        string
}{
	SpotifyBaseURL:   "https://api.spotify.com/v1",
	SpotifyTokenURL:  "https://accounts.spotify.com/api/token",
	GeniusBaseURL:    "https://api.genius.com",
	GoogleTTSBaseURL: "https://translate.google.com",
	UserAgent:        "Mozilla/5.0 (compatible; LyricSense/1.0)",
}

var Timeouts = struct {
	ProviderCall    time.Duration
	PageFetch       time.Duration
	ReadHeader      time.Duration
	ServerWrite     time.Duration
	ShutdownGrace   time.Duration
	HealthCheckPing time.Duration
}{
	ProviderCall:    15 * time.Second,
	PageFetch:       15 * time.Second,
	ReadHeader:      10 * time.Second,
	ServerWrite:     60 * time.Second,
	ShutdownGrace:   10 * time.Second,
	HealthCheckPing: 5 * time.Second,
}

var RetryConfig = struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      time.Duration
}{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	Jitter:      250 * time.Millisecond,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HalfOpenRequests    uint32
	CountInterval       time.Duration
}{
	FailureThreshold:    5,                // 연속 실패 5회 시 OPEN
	ResetTimeout:        30 * time.Second, // 기본 재시도 대기 시간
	RateLimitTimeout:    5 * time.Minute,  // 429 전용 타임아웃
	HealthCheckInterval: 2 * time.Minute,
	HalfOpenRequests:    1,
	CountInterval:       time.Minute,
}

var LLMLimits = struct {
	ExplainMaxTokens     int
	AnalysisMaxTokens    int
	AnalysisTemperature  float32
	MaxSlangTerms        int
	MaxLyricsTokens      int
	MaxLyricsRunesPrompt int
	MaxWordLength        int
	MaxContextLength     int
}{
	ExplainMaxTokens:     200,
	AnalysisMaxTokens:    400,
	AnalysisTemperature:  0.5,
	MaxSlangTerms:        5,
	MaxLyricsTokens:      3000,
	MaxLyricsRunesPrompt: 4000,
	MaxWordLength:        200,
	MaxContextLength:     2000,
}

var SpeechLimits = struct {
	MaxTextRunes   int
	ChunkRunes     int
	DefaultText    string
	DefaultLang    string
	AudioMIMEType  string
	MaxAudioBytes  int64
	OpenAIVoice    string
	OpenAIModel    string
	OpenAIFallback bool
}{
	MaxTextRunes:   500,
	ChunkRunes:     100,
	DefaultText:    "사랑",
	DefaultLang:    "ko",
	AudioMIMEType:  "audio/mpeg",
	MaxAudioBytes:  10 * 1024 * 1024,
	OpenAIVoice:    "alloy",
	OpenAIModel:    "tts-1",
	OpenAIFallback: true,
}

var DiscoveryConfig = struct {
	DefaultLimit       int
	MaxLimit           int
	LyricsConcurrency  int
	EnrichConcurrency  int
	DefaultTargetLang  string
	MaxPageBytes       int64
	MaxTranslateLength int
}{
	DefaultLimit:       1,
	MaxLimit:           10,
	LyricsConcurrency:  4,
	EnrichConcurrency:  3,
	DefaultTargetLang:  "en",
	MaxPageBytes:       5 * 1024 * 1024,
	MaxTranslateLength: 5000,
}
