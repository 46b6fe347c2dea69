// Package parser turns the free-form text of a generative backend into typed
// research records.
//
// The text is treated as untrusted. It is split into blocks, each opened by a
// header line such as "CASE 3:" or "ACT 1:", and every block is scanned for
// "Field: value" lines. Extraction never fails: a block without a title is
// dropped, a missing field gets a placeholder, and text with no recognisable
// block yields an empty slice.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/yangwenmai/lexdraft/internal/model"
)

// BlockKind selects the header label that opens a block.
type BlockKind string

// Block kinds
const (
	KindCase    BlockKind = "CASE"
	KindStatute BlockKind = "ACT"
)

// headers match "<LABEL> <integer>:" on its own line, case-insensitively.
// Leading markdown emphasis or heading markers are tolerated.
var headers = map[BlockKind]*regexp.Regexp{
	KindCase:    regexp.MustCompile(`(?im)^[ \t#*_]*CASE[ \t]+\d+[ \t*_]*:[*_]*`),
	KindStatute: regexp.MustCompile(`(?im)^[ \t#*_]*ACT[ \t]+\d+[ \t*_]*:[*_]*`),
}

// Block is the raw body of one header-delimited section.
type Block struct {
	Header string
	Body   string
}

// Split returns the blocks of text in the order they appear. Text before the
// first header is ignored. The integer in a header is kept only as text and
// never used for numbering.
func Split(text string, kind BlockKind) []Block {
	re, ok := headers[kind]
	if !ok {
		return nil
	}
	text = normalize(text)

	locs := re.FindAllStringIndex(text, -1)
	blocks := make([]Block, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, Block{
			Header: strings.TrimSpace(text[loc[0]:loc[1]]),
			Body:   text[loc[1]:end],
		})
	}
	return blocks
}

func normalize(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// linePrefix tolerates list markers and markdown emphasis before a field
// name: "1. Title:", "- Title:", "• Title:", "**Title:**".
const linePrefix = `^[ \t]*(?:\d+[.)]|[-*_•])?[ \t*_]*`

// fieldPattern builds a line-anchored, case-insensitive matcher for a field
// name expressed as a regexp fragment. The value may be empty when it sits on
// the following line.
func fieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)` + linePrefix + `(?:` + name + `)[ \t*_]*:[ \t*_]*(.*)$`)
}

// labelLine matches a line that opens any known field.
var labelLine = fieldPattern(`title|citation|year|court|summary|relevance|sections?|description|keywords`)

// field returns the trimmed value of the first line matching re, or "" when
// there is none. An empty value is taken from the next non-blank line unless
// that line opens another field.
func field(body string, re *regexp.Regexp) string {
	loc := re.FindStringSubmatchIndex(body)
	if loc == nil {
		return ""
	}
	if v := clean(body[loc[2]:loc[3]]); v != "" {
		return v
	}
	for _, line := range strings.Split(body[loc[1]:], "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if labelLine.MatchString(line) {
			return ""
		}
		return clean(line)
	}
	return ""
}

func clean(v string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(v), "*_"))
}

func orDefault(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}

var (
	caseTitle     = fieldPattern(`title`)
	caseCitation  = fieldPattern(`citation`)
	caseYear      = fieldPattern(`year`)
	caseCourt     = fieldPattern(`court`)
	caseSummary   = fieldPattern(`summary`)
	caseRelevance = fieldPattern(`relevance`)

	statuteTitle       = fieldPattern(`title`)
	statuteSections    = fieldPattern(`sections?`)
	statuteDescription = fieldPattern(`description`)
	statuteKeywords    = fieldPattern(`keywords`)

	leadingDigits = regexp.MustCompile(`^\d+`)
)

// ParseCases extracts case-law records. Records are numbered 1..N in the order
// their blocks appear.
func ParseCases(text string) []model.CaseRecord {
	blocks := Split(text, KindCase)
	records := make([]model.CaseRecord, 0, len(blocks))
	for _, b := range blocks {
		title := field(b.Body, caseTitle)
		if title == "" {
			continue
		}
		records = append(records, model.CaseRecord{
			ID:        len(records) + 1,
			Title:     title,
			Citation:  orDefault(field(b.Body, caseCitation), model.PlaceholderCitation),
			Year:      parseYear(b.Body),
			Court:     orDefault(field(b.Body, caseCourt), model.PlaceholderCourt),
			Summary:   orDefault(field(b.Body, caseSummary), model.PlaceholderSummary),
			Relevance: orDefault(field(b.Body, caseRelevance), model.PlaceholderRelevance),
			URL:       model.PlaceholderURL,
		})
	}
	return records
}

func parseYear(body string) model.Year {
	digits := leadingDigits.FindString(field(body, caseYear))
	if digits == "" {
		return model.Year{}
	}
	y, err := strconv.Atoi(digits)
	if err != nil {
		return model.Year{}
	}
	return model.KnownYear(y)
}

// ParseStatutes extracts statute records. Records are numbered 1..N in the
// order their blocks appear.
func ParseStatutes(text string) []model.StatuteRecord {
	blocks := Split(text, KindStatute)
	records := make([]model.StatuteRecord, 0, len(blocks))
	for _, b := range blocks {
		title := field(b.Body, statuteTitle)
		if title == "" {
			continue
		}
		records = append(records, model.StatuteRecord{
			ID:          len(records) + 1,
			Title:       title,
			Sections:    orDefault(field(b.Body, statuteSections), model.PlaceholderSections),
			Description: orDefault(field(b.Body, statuteDescription), model.PlaceholderDescription),
			Keywords:    orDefault(field(b.Body, statuteKeywords), model.PlaceholderKeywords),
			URL:         model.PlaceholderURL,
		})
	}
	return records
}
