package ai

import (
	stderrors "errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/openai/openai-go/v3"

	"github.com/kapu/lyricsense-go/internal/service/provider"
	"github.com/kapu/lyricsense-go/pkg/errors"
)

var (
	geminiCodeRegex   = regexp.MustCompile(`"code":\s*(\d{3})`)
	genaiErrorRegex   = regexp.MustCompile(`Error (\d{3})\b`)
	leadingCodeRegex  = regexp.MustCompile(`^(\d{3})\s`)
	serverStatusRegex = regexp.MustCompile(`\b(5\d{2})\b`)
)

// classifyModelError maps SDK errors onto provider error kinds. OpenAI errors carry
// a typed status; Gemini errors are recognised from their message.
func classifyModelError(name string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsProviderError(err); ok {
		return err
	}

	var apiErr *openai.Error
	if stderrors.As(err, &apiErr) {
		detail := strings.TrimSpace(apiErr.Message)
		if detail == "" {
			detail = "model request failed"
		}
		return errors.FromStatus(name, apiErr.StatusCode, detail).WithCause(err)
	}

	if code, ok := statusFromMessage(err.Error()); ok {
		return errors.FromStatus(name, code, "model request failed").WithCause(err)
	}

	msg := err.Error()
	if strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
		return errors.NewProviderError(errors.KindRateLimited, name, "rate limited").WithCause(err)
	}
	if strings.Contains(msg, "API key not valid") || strings.Contains(msg, "PERMISSION_DENIED") {
		return errors.NewProviderError(errors.KindUnauthorized, name, "credentials rejected").WithCause(err)
	}

	return provider.Classify(name, err)
}

func statusFromMessage(msg string) (int, bool) {
	for _, re := range []*regexp.Regexp{genaiErrorRegex, geminiCodeRegex, leadingCodeRegex} {
		if matches := re.FindStringSubmatch(msg); len(matches) > 1 {
			if code, err := strconv.Atoi(matches[1]); err == nil && code >= 400 {
				return code, true
			}
		}
	}
	if matches := serverStatusRegex.FindStringSubmatch(msg); len(matches) > 1 {
		code, _ := strconv.Atoi(matches[1])
		return code, true
	}
	return 0, false
}
