package romanize

import (
	"strings"

	"github.com/kapu/lyricsense-go/internal/domain"
)

// Hangul syllable block layout (Unicode 3.0+): 19 initials x 21 vowels x 28 finals.
const (
	syllableBase  = 0xAC00
	syllableLast  = 0xD7A3
	vowelCount    = 21
	finalCount    = 28
	initialStride = vowelCount * finalCount
)

// initial consonants
const (
	iG = iota
	iGG
	iN
	iD
	iDD
	iR
	iM
	iB
	iBB
	iS
	iSS
	iSilent
	iJ
	iJJ
	iCH
	iK
	iT
	iP
	iH
)

// final consonants
const (
	fNone = iota
	fG
	fGG
	fGS
	fN
	fNJ
	fNH
	fD
	fL
	fLG
	fLM
	fLB
	fLS
	fLT
	fLP
	fLH
	fM
	fB
	fBS
	fS
	fSS
	fNG
	fJ
	fCH
	fK
	fT
	fP
	fH
)

const vowelI = 20

var initialRoman = [...]string{
	"g", "kk", "n", "d", "tt", "r", "m", "b", "pp", "s", "ss", "", "j", "jj", "ch", "k", "t", "p", "h",
}

var vowelRoman = [...]string{
	"a", "ae", "ya", "yae", "eo", "e", "yeo", "ye", "o", "wa", "wae", "oe", "yo", "u", "wo", "we", "wi", "yu", "eu", "ui", "i",
}

// finalRoman is the representative sound of a final that stays in its syllable.
var finalRoman = [...]string{
	"", "k", "k", "k", "n", "n", "n", "t", "l", "k", "m", "l", "l", "l", "p", "l", "m", "p", "p", "t", "t", "ng", "t", "t", "k", "t", "p", "t",
}

type split struct {
	keep  int
	moved int
}

// liaison maps a final to what stays behind and what moves onto a following silent ㅇ.
var liaison = map[int]split{
	fG: {fNone, iG}, fGG: {fNone, iGG}, fN: {fNone, iN}, fD: {fNone, iD},
	fL: {fNone, iR}, fM: {fNone, iM}, fB: {fNone, iB}, fS: {fNone, iS},
	fSS: {fNone, iSS}, fJ: {fNone, iJ}, fCH: {fNone, iCH}, fK: {fNone, iK},
	fT: {fNone, iT}, fP: {fNone, iP},
	fGS: {fG, iS}, fNJ: {fN, iJ}, fLG: {fL, iG}, fLM: {fL, iM}, fLB: {fL, iB},
	fLS: {fL, iS}, fLT: {fL, iT}, fLP: {fL, iP}, fBS: {fB, iS},
	// ㅎ is silent before a vowel
	fNH: {fNone, iN}, fLH: {fNone, iR},
}

// aspiration of a plain initial following ㅎ
var aspirated = map[int]int{iG: iK, iD: iT, iJ: iCH}

// obstruent final merging with a following ㅎ
var mergeWithH = map[int]split{
	fG: {fNone, iK}, fGG: {fNone, iK}, fK: {fNone, iK},
	fD: {fNone, iT}, fS: {fNone, iT}, fT: {fNone, iT},
	fB: {fNone, iP}, fP: {fNone, iP},
	fJ: {fNone, iCH}, fCH: {fNone, iCH},
	fLG: {fL, iK}, fLB: {fL, iP},
}

// nasalized maps obstruent finals to the nasal they become before ㄴ or ㅁ.
var nasalized = map[int]int{
	fG: fNG, fGG: fNG, fK: fNG, fGS: fNG, fLG: fNG,
	fD: fN, fS: fN, fSS: fN, fJ: fN, fCH: fN, fT: fN, fH: fN,
	fB: fM, fP: fM, fBS: fM, fLP: fM,
}

type syllable struct {
	initial int
	vowel   int
	final   int
}

func isSyllable(r rune) bool {
	return r >= syllableBase && r <= syllableLast
}

func decompose(r rune) syllable {
	code := int(r - syllableBase)
	return syllable{
		initial: code / initialStride,
		vowel:   (code % initialStride) / finalCount,
		final:   code % finalCount,
	}
}

// Romanizer converts Hangul to Latin script with the Revised Romanization of Korean.
// It is a pure function of its input.
type Romanizer struct{}

func NewRomanizer() *Romanizer {
	return &Romanizer{}
}

func (r *Romanizer) Romanize(text string) domain.RomanizationResult {
	return domain.RomanizationResult{RomanizedText: Romanize(text)}
}

// Romanize transliterates every run of Hangul syllables in text, applying sound
// changes between syllables of the same run. Other characters are copied as is.
func Romanize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	run := make([]syllable, 0, 16)
	flush := func() {
		if len(run) > 0 {
			writeRun(&b, run)
			run = run[:0]
		}
	}

	for _, ch := range text {
		if isSyllable(ch) {
			run = append(run, decompose(ch))
			continue
		}
		flush()
		b.WriteRune(ch)
	}
	flush()

	return b.String()
}

func writeRun(b *strings.Builder, run []syllable) {
	for i := 0; i+1 < len(run); i++ {
		applyBoundary(&run[i], &run[i+1])
	}

	for i, s := range run {
		if s.initial == iR && i > 0 && run[i-1].final == fL {
			b.WriteString("l")
		} else {
			b.WriteString(initialRoman[s.initial])
		}
		b.WriteString(vowelRoman[s.vowel])
		b.WriteString(finalRoman[s.final])
	}
}

// applyBoundary rewrites the final of cur and the initial of next for the sound
// changes across one syllable boundary.
func applyBoundary(cur, next *syllable) {
	if cur.final == fNone {
		return
	}

	// liaison: the final carries over to a vowel-initial syllable
	if next.initial == iSilent {
		if cur.final == fNG {
			return
		}
		if cur.final == fH {
			cur.final = fNone
			return
		}
		if s, ok := liaison[cur.final]; ok {
			cur.final = s.keep
			next.initial = s.moved
			// palatalization: ㄷ/ㅌ before 이 become ㅈ/ㅊ
			if next.vowel == vowelI {
				switch next.initial {
				case iD:
					next.initial = iJ
				case iT:
					next.initial = iCH
				}
			}
		}
		return
	}

	// aspiration around ㅎ
	switch cur.final {
	case fH, fNH, fLH:
		if asp, ok := aspirated[next.initial]; ok {
			next.initial = asp
			cur.final = map[int]int{fH: fNone, fNH: fN, fLH: fL}[cur.final]
			return
		}
		if next.initial == iS && cur.final == fH {
			next.initial = iSS
			cur.final = fNone
			return
		}
	}
	if next.initial == iH {
		if s, ok := mergeWithH[cur.final]; ok {
			cur.final = s.keep
			next.initial = s.moved
		}
		return
	}

	// liquids
	switch next.initial {
	case iR:
		switch cur.final {
		case fL:
			return
		case fN:
			cur.final = fL
			return
		default:
			next.initial = iN
		}
	case iN:
		if cur.final == fL || cur.final == fLH {
			cur.final = fL
			next.initial = iR
			return
		}
	}

	// nasalization before ㄴ/ㅁ
	if next.initial == iN || next.initial == iM {
		if nasal, ok := nasalized[cur.final]; ok {
			cur.final = nasal
		}
	}
}
