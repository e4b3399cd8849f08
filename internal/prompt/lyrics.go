package prompt

import "github.com/kapu/lyricsense-go/internal/constants"

type explainWordData struct {
	Word    string
	Context string
}

type songAnalysisData struct {
	Title    string
	Artist   string
	Lyrics   string
	MaxSlang int
}

func (pb *PromptBuilder) ExplainWord(word, context string) (Message, error) {
	return pb.Render(TemplateExplainWord, explainWordData{Word: word, Context: context})
}

// SongAnalysis renders the combined cultural-analysis and slang prompt. Lyrics are
// expected to be budgeted by the caller.
func (pb *PromptBuilder) SongAnalysis(title, artist, lyrics string) (Message, error) {
	return pb.Render(TemplateSongAnalysis, songAnalysisData{
		Title:    title,
		Artist:   artist,
		Lyrics:   lyrics,
		MaxSlang: constants.LLMLimits.MaxSlangTerms,
	})
}
