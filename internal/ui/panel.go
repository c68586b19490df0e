package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// FormatPanel draws body inside a rounded box with title in the top border.
func FormatPanel(title, body string) string {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")

	width := utf8.RuneCountInString(title) + 2
	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n > width {
			width = n
		}
	}

	var b strings.Builder
	top := "─ " + title + " "
	b.WriteString("╭" + top + strings.Repeat("─", width+2-utf8.RuneCountInString(top)) + "╮\n")
	for _, line := range lines {
		pad := width - utf8.RuneCountInString(line)
		b.WriteString("│ " + line + strings.Repeat(" ", pad) + " │\n")
	}
	b.WriteString("╰" + strings.Repeat("─", width+2) + "╯\n")
	return b.String()
}

// Panel prints a boxed message in c.
func Panel(c *color.Color, title, body string) {
	c.Print(FormatPanel(title, body))
}

// ErrorPanel prints err in a red box.
func ErrorPanel(title string, err error) {
	Panel(Red, title, err.Error())
}

// SuccessPanel prints a green box.
func SuccessPanel(title, body string) {
	Panel(Green, title, body)
}
