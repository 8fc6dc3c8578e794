package vision

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// longPromptRunes is the length above which prompts are not translated.
const longPromptRunes = 1000

// Translation pairs an English prompt with its Chinese rendering.
type Translation struct {
	English string
	Chinese string
}

var (
	markupPattern  = regexp.MustCompile(`<[^>]+>`)
	bracketPattern = regexp.MustCompile(`[{}()\[\]"'<>]`)
	keywordPattern = regexp.MustCompile(`\b[A-Za-z]{4,}\b`)
)

// Translate renders text in Traditional Chinese. Long prompts are not sent to
// the model: Chinese ones are kept as the Chinese field, English ones keep
// the original and get a keyword note. Model failures keep the original with
// an empty Chinese field.
func (c *Client) Translate(ctx context.Context, text string) Translation {
	text = strings.TrimSpace(text)
	if text == "" {
		return Translation{}
	}
	if len([]rune(text)) > longPromptRunes {
		if HasChinese(text) {
			return Translation{Chinese: text}
		}
		return Translation{English: text, Chinese: "長指令 - 主題關鍵字：" + longPromptKeywords(text)}
	}

	content, err := c.complete(ctx, "vision translate", []chatMessage{
		{Role: "user", Content: fmt.Sprintf(translatePromptTemplate, text)},
	}, false)
	if err != nil {
		return Translation{English: text}
	}
	chinese := strings.TrimSpace(strings.ReplaceAll(StripCodeFence(content), "`", ""))
	if !HasChinese(chinese) {
		return Translation{English: text}
	}
	return Translation{English: text, Chinese: chinese}
}

func longPromptKeywords(text string) string {
	head := text
	if runes := []rune(head); len(runes) > 300 {
		head = string(runes[:300])
	}
	clean := markupPattern.ReplaceAllString(head, "")
	clean = bracketPattern.ReplaceAllString(clean, " ")
	words := keywordPattern.FindAllString(clean, 8)
	return strings.Join(words, " ")
}
