package editor

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/yu-lin0312/news-collector/internal/domain"
)

const systemEditor = "Ты выпускающий редактор ежедневного обзора новостей об ИИ и технологиях. Пиши только факты из входных данных и отвечай на традиционном китайском (繁體中文), если не указано иное."

const categoryDefinitions = `- Breaking: крупные анонсы и запуски моделей, громкие события отрасли
- Tools: новые инструменты, продукты и обновления для разработчиков и пользователей
- Business: сделки, инвестиции, финансовые результаты, стратегия компаний
- Creative: генерация изображений, видео, музыки, дизайн
- Research: научные работы, технические прорывы, новые архитектуры
- Rules: законы, регулирование, государственная политика и субсидии
- Risk: уязвимости, предвзятость, этические споры, угрозы безопасности`

func rankPrompt(items []domain.ScoredCandidate, k int) Prompt {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "ID: %d\nЗаголовок: %s\nИсточник: %s\nРубрика: %s\nАннотация: %s\n\n",
			i, it.Candidate.Title, it.Candidate.Source, it.Topic, clipRunes(strings.TrimSpace(it.Candidate.Summary), 100))
	}
	user := fmt.Sprintf(`Из %d кандидатов выбери до %d самых значимых новостей дня.
Критерии:
1. Влияние на отрасль, прорывные технологии, важные шаги крупных компаний.
2. Баланс рубрик: если в рубрике есть качественная новость, включи хотя бы одну.
3. Разнообразие: не допускай, чтобы одна компания или тема заняла весь список.
4. Свежесть: предпочитай последние события.
5. Исключай шум: узкие технические детали, колебания котировок, повторы.
Используй только идентификаторы из списка и упорядочи их по важности.
Верни JSON {"ids": [5, 12, 0, ...]}.

Кандидаты:
%s`, len(items), k, b.String())
	return Prompt{
		Operation: "rank_and_select",
		System:    systemEditor,
		User:      user,
		Schema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"ids": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeInteger},
					Description: "Идентификаторы выбранных новостей по убыванию важности.",
				},
			},
			Required: []string{"ids"},
		},
	}
}

func summarizePrompt(c domain.Candidate, body string) Prompt {
	user := fmt.Sprintf(`Прочитай новость и подготовь текст для ежедневного обзора.

Заголовок: %s
Источник: %s
Содержание:
%s

Заполни поля:
1. ai_rundown: на традиционном китайском, одна фраза о сути и 2-3 предложения о том, что произошло. Не длиннее 50 иероглифов.
2. category: одна рубрика из списка, только название на английском:
%s

Верни JSON {"ai_rundown": "...", "category": "..."}.`, c.Title, c.Source, clipRunes(body, 3000), categoryDefinitions)
	topics := make([]string, 0, len(domain.EditorTopics))
	for _, t := range domain.EditorTopics {
		topics = append(topics, string(t))
	}
	return Prompt{
		Operation: "summarize",
		System:    systemEditor,
		User:      user,
		Schema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"ai_rundown": {Type: genai.TypeString, Description: "Короткий пересказ новости."},
				"category":   {Type: genai.TypeString, Enum: topics, Description: "Редакционная рубрика."},
			},
			Required: []string{"ai_rundown", "category"},
		},
	}
}

func dailyPrompt(items []domain.BriefingItem) Prompt {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s (Рубрика: %s)\n", i+1, it.Title, it.Topic)
	}
	user := fmt.Sprintf(`Ниже главные новости дня. Подготовь текст карточки обзора на традиционном китайском.

%s
Заполни поля:
1. title_summary: цепкий заголовок из 1-2 главных событий, не длиннее 25 иероглифов.
2. key_takeaways: одно предложение с 2-3 ключевыми компаниями или темами, не длиннее 40 иероглифов.

Верни JSON {"title_summary": "...", "key_takeaways": "..."}.`, b.String())
	return Prompt{
		Operation: "daily_summary",
		System:    systemEditor,
		User:      user,
		Schema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title_summary": {Type: genai.TypeString},
				"key_takeaways": {Type: genai.TypeString},
			},
			Required: []string{"title_summary", "key_takeaways"},
		},
	}
}
