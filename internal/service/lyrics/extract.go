package lyrics

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kapu/lyricsense-go/internal/util"
)

// ContainerSelector matches the blocks a lyrics page marks as lyric content.
const ContainerSelector = `div[data-lyrics-container="true"]`

// ExtractLyrics pulls plain text out of a lyrics page. Containers are joined with a
// newline in document order and <br> tags become line breaks. found is false when
// the page has no lyric containers at all.
func ExtractLyrics(page []byte) (text string, found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", false, err
	}

	containers := doc.Find(ContainerSelector)
	if containers.Length() == 0 {
		return "", false, nil
	}

	parts := make([]string, 0, containers.Length())
	containers.Each(func(_ int, container *goquery.Selection) {
		var b strings.Builder
		writeText(&b, container)
		parts = append(parts, b.String())
	})

	return util.CollapseBlankLines(strings.Join(parts, "\n")), true, nil
}

func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		switch goquery.NodeName(node) {
		case "#text":
			b.WriteString(node.Text())
		case "br":
			b.WriteByte('\n')
		case "#comment", "script", "style":
		default:
			// annotation headers and share widgets embedded in the container
			if v, ok := node.Attr("data-exclude-from-selection"); ok && v == "true" {
				return
			}
			writeText(b, node)
		}
	})
}
