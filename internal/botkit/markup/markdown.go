package markup

import (
	"fmt"
	"strings"
)

var replacer = strings.NewReplacer(
	"\\", "\\\\",
	"-", "\\-",
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

// linkReplacer escapes the characters Telegram requires inside the (...) part of a link.
var linkReplacer = strings.NewReplacer(
	"\\", "\\\\",
	")", "\\)",
)

// EscapeForMarkdown escapes src for Telegram MarkdownV2.
func EscapeForMarkdown(src string) string {
	return replacer.Replace(src)
}

func Bold(src string) string {
	return "*" + EscapeForMarkdown(src) + "*"
}

func Italic(src string) string {
	return "_" + EscapeForMarkdown(src) + "_"
}

func Link(text, url string) string {
	return fmt.Sprintf("[%s](%s)", EscapeForMarkdown(text), linkReplacer.Replace(url))
}
