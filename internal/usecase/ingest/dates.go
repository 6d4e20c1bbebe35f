package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDate    = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	slashYMD   = regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`)
	slashMDY   = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	cjkDate    = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
	weekday    = regexp.MustCompile(`^[A-Za-z]+,?\s+`)
	daysAgo    = regexp.MustCompile(`^(\d+)\s*天前`)
	englishAgo = regexp.MustCompile(`^(\d+)\s+(\w+)\s+ago`)
)

var timestampLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
}

var dateLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
}

var weekdayLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
}

// NormalizeDate приводит сырую дату источника к календарному дню в loc.
// Нераспознанная или пустая дата становится сегодняшним днём.
func NormalizeDate(raw string, now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	today := now.In(loc)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return day(today.Year(), int(today.Month()), today.Day(), loc)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.In(loc)
			return day(t.Year(), int(t.Month()), t.Day(), loc)
		}
	}
	if t, ok := fromPatterns(raw, loc); ok {
		return t
	}
	if t, ok := fromLayouts(raw, today, loc); ok {
		return t
	}
	if t, ok := fromRelative(raw, today, loc); ok {
		return t
	}
	return day(today.Year(), int(today.Month()), today.Day(), loc)
}

func fromPatterns(raw string, loc *time.Location) (time.Time, bool) {
	type pattern struct {
		re               *regexp.Regexp
		year, month, day int
	}
	patterns := []pattern{
		{isoDate, 1, 2, 3},
		{slashYMD, 1, 2, 3},
		{slashMDY, 3, 1, 2},
		{cjkDate, 1, 2, 3},
	}
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		y, _ := strconv.Atoi(m[p.year])
		mo, _ := strconv.Atoi(m[p.month])
		d, _ := strconv.Atoi(m[p.day])
		if t, ok := validDay(y, mo, d, loc); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func fromLayouts(raw string, today time.Time, loc *time.Location) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	clean := weekday.ReplaceAllString(raw, "")
	for _, layout := range weekdayLayouts {
		if t, err := time.ParseInLocation(layout, clean, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.ParseInLocation("January 2", raw, loc); err == nil {
		return day(today.Year(), int(t.Month()), t.Day(), loc), true
	}
	return time.Time{}, false
}

func fromRelative(raw string, today time.Time, loc *time.Location) (time.Time, bool) {
	base := day(today.Year(), int(today.Month()), today.Day(), loc)
	if strings.Contains(raw, "小時前") || strings.Contains(raw, "分鐘前") {
		return base, true
	}
	if m := daysAgo.FindStringSubmatch(raw); m != nil {
		n, _ := strconv.Atoi(m[1])
		return base.AddDate(0, 0, -n), true
	}
	if m := englishAgo.FindStringSubmatch(strings.ToLower(raw)); m != nil {
		n, _ := strconv.Atoi(m[1])
		unit := m[2]
		switch {
		case strings.HasPrefix(unit, "hour"), strings.HasPrefix(unit, "min"):
			return base, true
		case strings.HasPrefix(unit, "day"):
			return base.AddDate(0, 0, -n), true
		}
	}
	return time.Time{}, false
}

func validDay(y, m, d int, loc *time.Location) (time.Time, bool) {
	t := day(y, m, d, loc)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func day(y, m, d int, loc *time.Location) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
}
