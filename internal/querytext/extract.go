package querytext

import (
	"strings"
	"unicode/utf8"
)

const (
	ratersCommentsMarker = "Raters' Comments"
	reviewMarker         = "Target Sentence from the above response:"

	ratersBlock   = "Target Sentence\nRaters' Comments\nTask Questions\n\n\n"
	ratersEnd     = "\n\n\n"
	defaultStart  = "Question A"
	defaultFinish = "A. To what extent is the Target Sentence"
)

// Phrases bounds the sentence in review exports.
type Phrases struct {
	Start string `mapstructure:"start_phrase"`
	End   string `mapstructure:"end_phrase"`
}

// DefaultPhrases returns the phrases used by the stock review template.
func DefaultPhrases() Phrases {
	return Phrases{Start: defaultStart, End: defaultFinish}
}

// Extract returns the sentence embedded in raw. The boolean is false when raw
// looks like an export but one of its anchors is missing. Text that matches no
// export format is returned unchanged.
func Extract(raw string, phrases Phrases) (string, bool) {
	switch {
	case strings.Contains(raw, ratersCommentsMarker):
		return extractRatersBlock(raw)
	case strings.Contains(raw, reviewMarker):
		return extractBetween(raw, phrases)
	default:
		return raw, true
	}
}

func extractRatersBlock(text string) (string, bool) {
	start := strings.Index(text, ratersBlock)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(ratersBlock):]
	end := strings.Index(rest, ratersEnd)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func extractBetween(text string, phrases Phrases) (string, bool) {
	if phrases.Start == "" {
		phrases.Start = defaultStart
	}
	if phrases.End == "" {
		phrases.End = defaultFinish
	}
	_, from := indexFold(text, phrases.Start)
	if from < 0 {
		return "", false
	}
	to, _ := indexFold(text[from:], phrases.End)
	if to < 0 {
		return "", false
	}
	return strings.TrimSpace(text[from : from+to]), true
}

// indexFold finds substr in s under Unicode simple case folding. It returns
// the byte offsets in s where the match starts and ends, or -1, -1.
func indexFold(s, substr string) (int, int) {
	if substr == "" {
		return 0, 0
	}
	for i := 0; i < len(s); {
		if n := prefixFold(s[i:], substr); n >= 0 {
			return i, i + n
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return -1, -1
}

// prefixFold reports how many bytes of s match prefix, or -1.
func prefixFold(s, prefix string) int {
	consumed := 0
	for prefix != "" {
		if s == "" {
			return -1
		}
		pr, psize := utf8.DecodeRuneInString(prefix)
		sr, ssize := utf8.DecodeRuneInString(s)
		if !strings.EqualFold(string(pr), string(sr)) {
			return -1
		}
		prefix = prefix[psize:]
		s = s[ssize:]
		consumed += ssize
	}
	return consumed
}
