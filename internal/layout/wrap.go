package layout

import (
	"math"
	"strings"
	"unicode/utf8"
)

// TextWidth is the width of s under the fixed character-width model.
func TextWidth(s string, size float64, t Theme) float64 {
	return float64(utf8.RuneCountInString(s)) * size * t.CharWidth
}

// WrapLines breaks text into lines no wider than width. Words are accumulated
// greedily; explicit newlines always break; a word wider than the line is split
// by characters. Drawing and height estimation both go through here.
func WrapLines(text string, size, width float64, t Theme) []string {
	if text == "" {
		return nil
	}
	perLine := int(math.Floor(width / (size * t.CharWidth)))
	if perLine < 1 {
		perLine = 1
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var cur []rune
		for _, w := range words {
			word := []rune(w)
			for len(word) > perLine {
				if len(cur) > 0 {
					lines = append(lines, string(cur))
					cur = nil
				}
				lines = append(lines, string(word[:perLine]))
				word = word[perLine:]
			}
			if len(word) == 0 {
				continue
			}
			switch {
			case len(cur) == 0:
				cur = append(cur, word...)
			case len(cur)+1+len(word) <= perLine:
				cur = append(cur, ' ')
				cur = append(cur, word...)
			default:
				lines = append(lines, string(cur))
				cur = append([]rune(nil), word...)
			}
		}
		if len(cur) > 0 {
			lines = append(lines, string(cur))
		}
	}
	return lines
}

func EstimateLines(text string, size, width float64, t Theme) int {
	return len(WrapLines(text, size, width, t))
}

// ParagraphHeight is the vertical space a wrapped paragraph consumes.
func ParagraphHeight(text string, size, width float64, t Theme) float64 {
	return float64(EstimateLines(text, size, width, t)) * t.LinePitch(size)
}
