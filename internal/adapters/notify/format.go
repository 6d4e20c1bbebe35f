package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

var topicIcons = map[domain.Topic]string{
	domain.TopicBreaking:   "🔥",
	domain.TopicTools:      "🛠",
	domain.TopicBusiness:   "💼",
	domain.TopicCreative:   "🎨",
	domain.TopicResearch:   "🔬",
	domain.TopicRules:      "⚖️",
	domain.TopicRisk:       "⚠️",
	domain.TopicPolicy:     "🏛",
	domain.TopicTechnology: "🧪",
	domain.TopicIndustry:   "🏭",
}

// Subject заголовок письма и первой строки сообщения.
func Subject(b domain.Briefing) string {
	if title := strings.TrimSpace(b.Daily.Title); title != "" {
		return fmt.Sprintf("AI 每日簡報 %s: %s", b.Date, title)
	}
	return "AI 每日簡報 " + b.Date
}

// FormatHTML формирует сообщение для Telegram в разметке HTML.
func FormatHTML(b domain.Briefing) string {
	var sections []string
	sections = append(sections, "📰 <b>"+html.EscapeString(Subject(b))+"</b>")
	if takeaways := strings.TrimSpace(b.Daily.Takeaways); takeaways != "" {
		sections = append(sections, "📌 "+html.EscapeString(takeaways))
	}
	var items strings.Builder
	for _, it := range b.Items {
		title := html.EscapeString(strings.TrimSpace(it.Title))
		if url := strings.TrimSpace(it.URL); url != "" {
			title = fmt.Sprintf("<a href=\"%s\">%s</a>", html.EscapeString(url), title)
		}
		fmt.Fprintf(&items, "%d. %s %s", it.Rank, icon(it.Topic), title)
		if src := strings.TrimSpace(it.Source); src != "" {
			items.WriteString(" <i>(" + html.EscapeString(src) + ")</i>")
		}
		if summary := strings.TrimSpace(it.Summary); summary != "" {
			items.WriteString("\n" + html.EscapeString(summary))
		}
		items.WriteString("\n\n")
	}
	if text := strings.TrimSpace(items.String()); text != "" {
		sections = append(sections, text)
	}
	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}

// FormatText формирует текстовую версию для почты.
func FormatText(b domain.Briefing) string {
	var builder strings.Builder
	builder.WriteString(Subject(b) + "\n")
	if takeaways := strings.TrimSpace(b.Daily.Takeaways); takeaways != "" {
		builder.WriteString(takeaways + "\n")
	}
	builder.WriteString("\n")
	for _, it := range b.Items {
		fmt.Fprintf(&builder, "%d. [%s] %s\n", it.Rank, it.Topic, strings.TrimSpace(it.Title))
		if summary := strings.TrimSpace(it.Summary); summary != "" {
			builder.WriteString("   " + summary + "\n")
		}
		if url := strings.TrimSpace(it.URL); url != "" {
			builder.WriteString("   " + url + "\n")
		}
	}
	return strings.TrimSpace(builder.String())
}

// FormatEmailHTML формирует HTML-версию письма.
func FormatEmailHTML(b domain.Briefing) string {
	var builder strings.Builder
	builder.WriteString("<html><body>")
	builder.WriteString("<h2>" + html.EscapeString(Subject(b)) + "</h2>")
	if takeaways := strings.TrimSpace(b.Daily.Takeaways); takeaways != "" {
		builder.WriteString("<p><em>" + html.EscapeString(takeaways) + "</em></p>")
	}
	builder.WriteString("<ol>")
	for _, it := range b.Items {
		builder.WriteString("<li>")
		fmt.Fprintf(&builder, "<a href=\"%s\">%s</a> <small>%s · %s</small>",
			html.EscapeString(it.URL), html.EscapeString(it.Title), html.EscapeString(it.Source), html.EscapeString(string(it.Topic)))
		if summary := strings.TrimSpace(it.Summary); summary != "" {
			builder.WriteString("<p>" + html.EscapeString(summary) + "</p>")
		}
		builder.WriteString("</li>")
	}
	builder.WriteString("</ol></body></html>")
	return builder.String()
}

func icon(t domain.Topic) string {
	if i, ok := topicIcons[t]; ok {
		return i
	}
	return "•"
}
