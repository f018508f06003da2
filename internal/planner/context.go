package planner

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"tripplanner/internal/models"
)

// place matches a capitalized, possibly multi-word place name such as
// "Lisbon", "New York" or "Rio de Janeiro".
const place = `([A-Z][\p{L}'.-]*(?:\s+(?:(?:de|del|da|do|la|le|of|upon)\s+)?[A-Z][\p{L}'.-]*)*)`

var (
	destinationRe   = regexp.MustCompile(`\b(?i:to|visit|visiting|towards)\s+` + place)
	destinationInRe = regexp.MustCompile(`\b(?i:in|at)\s+` + place)
	originRe        = regexp.MustCompile(`\b(?i:from)\s+` + place + `\s+(?i:to)\b`)

	isoDateRe       = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	monthDayRe      = regexp.MustCompile(`(?i)\b` + monthNames + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`)
	dayMonthRe      = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthNames + `\.?(?:,?\s+(\d{4}))?\b`)
	durationRe      = regexp.MustCompile(`(?i)\b(\d+|a|an|one|two|three|four|five|six|seven|eight|nine|ten)\s+(day|night|week)s?\b`)
	weekendRe       = regexp.MustCompile(`(?i)\bweekend\b`)
	fortnightRe     = regexp.MustCompile(`(?i)\bfortnight\b`)
	travelersRe     = regexp.MustCompile(`(?i)\b(\d+|two|three|four|five|six|seven|eight|nine|ten)\s+(?:people|persons|adults|travell?ers|guests|friends|of us)\b`)
	familyOfRe      = regexp.MustCompile(`(?i)\b(?:family|group|party)\s+of\s+(\d+|two|three|four|five|six|seven|eight|nine|ten)\b`)
	soloRe          = regexp.MustCompile(`(?i)\b(?:solo|alone|by myself|just me)\b`)
	coupleRe        = regexp.MustCompile(`(?i)\b(?:couple|my (?:wife|husband|partner|girlfriend|boyfriend)|honeymoon)\b`)
	budgetSymbolRe  = regexp.MustCompile(`(?i)([$€£])\s?(\d[\d,]*(?:\.\d+)?)\s*(k)?\b`)
	budgetCodeRe    = regexp.MustCompile(`(?i)\b(\d[\d,]*(?:\.\d+)?)\s*(k)?\s*(usd|eur|gbp|dollars?|euros?|pounds?|bucks)\b`)
	budgetPhraseRe  = regexp.MustCompile(`(?i)\bbudget\s+(?:of|is|around|about|at|:)?\s*(?:around|about|roughly)?\s*(\d[\d,]*(?:\.\d+)?)\s*(k)?\b`)
	interestMatcher = buildInterestMatchers()
)

const monthNames = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// notPlaces are capitalized words that follow "to" or "in" without naming a place.
var notPlaces = map[string]bool{
	"i": true, "january": true, "february": true, "march": true, "april": true, "may": true,
	"june": true, "july": true, "august": true, "september": true, "october": true,
	"november": true, "december": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true, "sunday": true, "christmas": true,
	"spring": true, "summer": true, "autumn": true, "fall": true, "winter": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "jun": true, "jul": true,
	"aug": true, "sep": true, "sept": true, "oct": true, "nov": true, "dec": true,
}

var currencyBySymbol = map[string]string{"$": "USD", "€": "EUR", "£": "GBP"}

var currencyByWord = map[string]string{
	"usd": "USD", "dollar": "USD", "dollars": "USD", "bucks": "USD",
	"eur": "EUR", "euro": "EUR", "euros": "EUR",
	"gbp": "GBP", "pound": "GBP", "pounds": "GBP",
}

// interestVocabulary maps each canonical interest to the words that signal it.
var interestVocabulary = []struct {
	name  string
	words string
}{
	{"beach", `beach(?:es)?|seaside|sunbathing`},
	{"hiking", `hik(?:e|es|ing)|trekking|trails?`},
	{"museums", `museums?|galler(?:y|ies)`},
	{"food", `food|foodie|cuisine|restaurants?|street food|eating`},
	{"nightlife", `nightlife|bars|clubs|clubbing|partying`},
	{"history", `history|historic(?:al)?|ruins|castles?`},
	{"art", `art|arts|street art`},
	{"shopping", `shopping|markets?`},
	{"nature", `nature|wildlife|national parks?|safari`},
	{"skiing", `ski(?:ing)?|snowboard(?:ing)?`},
	{"culture", `culture|cultural|local traditions`},
	{"architecture", `architecture`},
	{"wine", `wine|vineyards?|wineries`},
	{"diving", `diving|scuba|snorkel(?:ing|ling)?`},
	{"adventure", `adventure|climbing|rafting|kayaking`},
	{"relaxation", `relax(?:ing|ation)?|spa|wellness`},
}

type interestPattern struct {
	name string
	re   *regexp.Regexp
}

func buildInterestMatchers() []interestPattern {
	out := make([]interestPattern, 0, len(interestVocabulary))
	for _, v := range interestVocabulary {
		out = append(out, interestPattern{
			name: v.name,
			re:   regexp.MustCompile(`(?i)\b(?:` + v.words + `)\b`),
		})
	}
	return out
}

// ExtractContext pulls trip details out of free text, resolving dates
// without a year relative to the current time.
func ExtractContext(text string) models.TripContext {
	return ExtractContextAt(text, time.Now())
}

// ExtractContextAt is ExtractContext with an explicit reference time. A
// "Month D" date without a year resolves to its next occurrence on or after now.
func ExtractContextAt(text string, now time.Time) models.TripContext {
	var ctx models.TripContext

	ctx.Origin = extractOrigin(text)
	ctx.Destination = extractDestination(text, ctx.Origin)

	dates := extractDates(text, now)
	if len(dates) > 0 {
		ctx.StartDate = dates[0].Format(models.DateLayout)
	}
	if len(dates) > 1 {
		end := dates[1]
		for end.Before(dates[0]) {
			end = end.AddDate(1, 0, 0)
		}
		ctx.EndDate = end.Format(models.DateLayout)
	}

	ctx.DurationDays = extractDuration(text)
	switch {
	case ctx.StartDate != "" && ctx.EndDate == "" && ctx.DurationDays > 0:
		ctx.EndDate = dates[0].AddDate(0, 0, ctx.DurationDays).Format(models.DateLayout)
	case ctx.StartDate != "" && ctx.EndDate != "" && ctx.DurationDays == 0:
		start, _ := time.Parse(models.DateLayout, ctx.StartDate)
		end, _ := time.Parse(models.DateLayout, ctx.EndDate)
		ctx.DurationDays = int(end.Sub(start).Hours() / 24)
	}

	ctx.Travelers = extractTravelers(text)
	ctx.Budget, ctx.Currency = extractBudget(text)
	ctx.Interests = extractInterests(text)
	return ctx
}

func extractOrigin(text string) string {
	m := originRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return cleanPlace(m[1])
}

// extractDestination prefers "to"/"visit" phrasing over "in"/"at".
func extractDestination(text, origin string) string {
	for _, re := range []*regexp.Regexp{destinationRe, destinationInRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			p := cleanPlace(m[1])
			if p == "" || p == origin {
				continue
			}
			return p
		}
	}
	return ""
}

// cleanPlace trims trailing punctuation and rejects month, weekday and season names.
func cleanPlace(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), ".'-")
	words := strings.Fields(p)
	if len(words) == 0 || notPlaces[strings.ToLower(words[0])] {
		return ""
	}
	return p
}

type datedMatch struct {
	pos  int
	date time.Time
}

func extractDates(text string, now time.Time) []time.Time {
	var found []datedMatch

	for _, idx := range isoDateRe.FindAllStringSubmatchIndex(text, -1) {
		if d, err := time.Parse(models.DateLayout, text[idx[2]:idx[3]]); err == nil {
			found = append(found, datedMatch{pos: idx[0], date: d})
		}
	}

	for _, idx := range monthDayRe.FindAllStringSubmatchIndex(text, -1) {
		month := text[idx[2]:idx[3]]
		day := text[idx[4]:idx[5]]
		year := ""
		if idx[6] >= 0 {
			year = text[idx[6]:idx[7]]
		}
		if d, ok := resolveDate(month, day, year, now); ok {
			found = append(found, datedMatch{pos: idx[0], date: d})
		}
	}

	for _, idx := range dayMonthRe.FindAllStringSubmatchIndex(text, -1) {
		day := text[idx[2]:idx[3]]
		month := text[idx[4]:idx[5]]
		year := ""
		if idx[6] >= 0 {
			year = text[idx[6]:idx[7]]
		}
		if d, ok := resolveDate(month, day, year, now); ok {
			found = append(found, datedMatch{pos: idx[0], date: d})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	dates := make([]time.Time, 0, len(found))
	for _, f := range found {
		dates = append(dates, f.date)
	}
	return dates
}

func resolveDate(monthName, dayStr, yearStr string, now time.Time) (time.Time, bool) {
	month, ok := months[strings.ToLower(monthName)[:3]]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	year := today.Year()
	explicitYear := yearStr != ""
	if explicitYear {
		if year, err = strconv.Atoi(yearStr); err != nil {
			return time.Time{}, false
		}
	}

	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day {
		// Rolled over, e.g. February 30.
		return time.Time{}, false
	}
	if !explicitYear && d.Before(today) {
		d = d.AddDate(1, 0, 0)
	}
	return d, true
}

func extractDuration(text string) int {
	if m := durationRe.FindStringSubmatch(text); m != nil {
		n := parseCount(m[1])
		switch strings.ToLower(m[2]) {
		case "week":
			return n * 7
		default:
			return n
		}
	}
	if fortnightRe.MatchString(text) {
		return 14
	}
	if weekendRe.MatchString(text) {
		return 2
	}
	return 0
}

func extractTravelers(text string) int {
	if m := travelersRe.FindStringSubmatch(text); m != nil {
		return parseCount(m[1])
	}
	if m := familyOfRe.FindStringSubmatch(text); m != nil {
		return parseCount(m[1])
	}
	if coupleRe.MatchString(text) {
		return 2
	}
	if soloRe.MatchString(text) {
		return 1
	}
	return 0
}

func parseCount(s string) int {
	if n, ok := numberWords[strings.ToLower(s)]; ok {
		return n
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// extractBudget prefers amounts with an explicit currency and falls back to
// "budget of N" with no currency.
func extractBudget(text string) (float64, string) {
	if m := budgetSymbolRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[2], m[3]); ok {
			return v, currencyBySymbol[m[1]]
		}
	}
	if m := budgetCodeRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1], m[2]); ok {
			return v, currencyByWord[strings.ToLower(m[3])]
		}
	}
	if m := budgetPhraseRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1], m[2]); ok {
			return v, ""
		}
	}
	return 0, ""
}

func parseAmount(digits, suffix string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	if suffix != "" {
		v *= 1000
	}
	return v, true
}

// extractInterests returns canonical interests in order of first mention.
func extractInterests(text string) []string {
	type hit struct {
		pos  int
		name string
	}
	var hits []hit
	for _, p := range interestMatcher {
		if loc := p.re.FindStringIndex(text); loc != nil {
			hits = append(hits, hit{pos: loc[0], name: p.name})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.name)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
