package telegram

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// TimeLabel formats t as a 24-hour HH:MM label in local time
func TimeLabel(t time.Time) string {
	return t.Local().Format("15:04")
}

// PlainText extracts the visible text from a Telegram HTML-formatted message.
// Input that cannot be parsed is returned unchanged.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}

// Preview returns the text to show as a contact's last message
func Preview(text, parseMode string) string {
	if strings.EqualFold(parseMode, ParseModeHTML) {
		return PlainText(text)
	}
	return text
}
