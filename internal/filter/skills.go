package filter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Category string

const (
	CategoryTechnical Category = "technical"
	CategoryEducation Category = "education"
	CategoryOther     Category = "other"
)

// skillTable is the vocabulary in match order. Patterns run against
// normalised text; single-letter tools are matched case-sensitively.
var skillTable = []struct {
	name     string
	category Category
	pattern  string
}{
	{"SQL", CategoryTechnical, `(?i)\b(?:sql|t-sql|pl/sql|mysql|postgresql|postgres)\b`},
	{"Python", CategoryTechnical, `(?i)\bpython\b`},
	{"R", CategoryTechnical, `(?:^|[\s,;(/])R(?:$|[\s,;)/.])`},
	{"Excel", CategoryTechnical, `(?i)\b(?:ms |microsoft )?excel\b`},
	{"Tableau", CategoryTechnical, `(?i)\btableau\b`},
	{"Power BI", CategoryTechnical, `(?i)\bpower\s?bi\b`},
	{"Looker", CategoryTechnical, `(?i)\blooker\b`},
	{"Qlik", CategoryTechnical, `(?i)\bqlik(?:view|sense)?\b`},
	{"SAS", CategoryTechnical, `\bSAS\b`},
	{"SPSS", CategoryTechnical, `(?i)\bspss\b`},
	{"VBA", CategoryTechnical, `(?i)\bvba\b`},
	{"Pandas", CategoryTechnical, `(?i)\bpandas\b`},
	{"NumPy", CategoryTechnical, `(?i)\bnumpy\b`},
	{"Spark", CategoryTechnical, `(?i)\b(?:py)?spark\b`},
	{"Hadoop", CategoryTechnical, `(?i)\bhadoop\b`},
	{"Snowflake", CategoryTechnical, `(?i)\bsnowflake\b`},
	{"BigQuery", CategoryTechnical, `(?i)\bbig\s?query\b`},
	{"Databricks", CategoryTechnical, `(?i)\bdatabricks\b`},
	{"dbt", CategoryTechnical, `(?i)\bdbt\b`},
	{"Airflow", CategoryTechnical, `(?i)\bairflow\b`},
	{"ETL", CategoryTechnical, `(?i)\b(?:etl|elt)\b`},
	{"AWS", CategoryTechnical, `(?i)\b(?:aws|amazon web services)\b`},
	{"Azure", CategoryTechnical, `(?i)\bazure\b`},
	{"GCP", CategoryTechnical, `(?i)\b(?:gcp|google cloud)\b`},
	{"Google Analytics", CategoryTechnical, `(?i)\bgoogle analytics\b`},
	{"Git", CategoryTechnical, `(?i)\bgit(?:hub|lab)?\b`},
	{"Machine Learning", CategoryTechnical, `(?i)\bmachine learning\b`},
	{"Statistics", CategoryTechnical, `(?i)\bstatistic(?:s|al)\b`},
	{"Bachelor's Degree", CategoryEducation, `(?i)\b(?:bachelor'?s?|bsc|b\.sc\.?|undergraduate degree)\b`},
	{"Master's Degree", CategoryEducation, `(?i)\b(?:master'?s?|msc|m\.sc\.?|mba)\b`},
	{"PhD", CategoryEducation, `(?i)\b(?:phd|ph\.d\.?|doctorate)\b`},
	{"Agile", CategoryOther, `(?i)\b(?:agile|scrum)\b`},
	{"Jira", CategoryOther, `(?i)\bjira\b`},
	{"Communication", CategoryOther, `(?i)\bcommunication skills?\b`},
	{"Stakeholder Management", CategoryOther, `(?i)\bstakeholders?\b`},
}

type skill struct {
	name     string
	category Category
	re       *regexp.Regexp
}

var (
	vocabulary = compileVocabulary()
	categories = func() map[string]Category {
		m := make(map[string]Category, len(vocabulary))
		for _, s := range vocabulary {
			m[s.name] = s.category
		}
		return m
	}()
	apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'", "`", "'")
)

func compileVocabulary() []skill {
	out := make([]skill, 0, len(skillTable))
	for _, row := range skillTable {
		out = append(out, skill{name: row.name, category: row.category, re: regexp.MustCompile(row.pattern)})
	}
	return out
}

// normalizeText strips diacritics and folds typographic apostrophes.
func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, str)
	if err != nil {
		result = str
	}
	return apostrophes.Replace(result)
}

// ExtractSkills returns the vocabulary terms found in text, each once, in
// vocabulary order. The result is never nil.
func ExtractSkills(text string) []string {
	found := make([]string, 0)
	if strings.TrimSpace(text) == "" {
		return found
	}
	normalized := normalizeText(text)
	for _, s := range vocabulary {
		if s.re.MatchString(normalized) {
			found = append(found, s.name)
		}
	}
	return found
}

// CategoryOf returns the category of a vocabulary term. Unknown terms are CategoryOther.
func CategoryOf(name string) Category {
	if c, ok := categories[name]; ok {
		return c
	}
	return CategoryOther
}

// Vocabulary lists the skill names in match order.
func Vocabulary() []string {
	names := make([]string, len(vocabulary))
	for i, s := range vocabulary {
		names[i] = s.name
	}
	return names
}

// CountByCategory tallies skill occurrences per category and per skill.
func CountByCategory(skills []string) map[Category]map[string]int {
	out := map[Category]map[string]int{}
	for _, s := range skills {
		c := CategoryOf(s)
		if out[c] == nil {
			out[c] = map[string]int{}
		}
		out[c][s]++
	}
	return out
}
