package ingest

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// aggregatorMarkers имена источников, которые пересказывают чужие материалы.
var aggregatorMarkers = []string{"TLDR Tech AI", "HackingAI"}

var knownHosts = []struct {
	marker string
	name   string
}{
	{"github", "GitHub"},
	{"arxiv", "Arxiv"},
	{"youtube", "YouTube"},
	{"bloomberg", "Bloomberg"},
	{"techcrunch", "TechCrunch"},
	{"wsj", "WSJ"},
	{"nytimes", "NYTimes"},
	{"reuters", "Reuters"},
}

// IsAggregator сообщает, что источник собирает ссылки на другие издания.
func IsAggregator(source string) bool {
	for _, m := range aggregatorMarkers {
		if strings.Contains(source, m) {
			return true
		}
	}
	return false
}

// ResolveSource для агрегатора возвращает издание по хосту ссылки, иначе исходное имя.
func ResolveSource(source, link string) string {
	if !IsAggregator(source) {
		return source
	}
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return source
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, h := range knownHosts {
		if strings.Contains(host, h.marker) {
			return h.name
		}
	}
	label := host
	if i := strings.IndexByte(host, '.'); i > 0 {
		label = host[:i]
	}
	r, size := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError {
		return source
	}
	return string(unicode.ToUpper(r)) + label[size:]
}

// StripHTML убирает разметку из аннотации и схлопывает пробелы.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
