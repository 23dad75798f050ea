package aggregator

import (
	"regexp"
	"strings"

	"github.com/andrewsem/factwatch/pkg/models"
)

// newsLineRe matches the pipe-delimited grammar the search prompts request:
// NEWS: <headline> | SOURCE: <name> | DATE: <date> | SENTIMENT: <word>
var newsLineRe = regexp.MustCompile(`(?i)NEWS:\s*([^|]+)\|\s*SOURCE:\s*([^|]+)\|\s*DATE:\s*([^|]+)\|\s*SENTIMENT:\s*([^\n]+)`)

// parsedTuple is one raw tuple before enrichment.
type parsedTuple struct {
	headline  string
	source    string
	date      string
	sentiment string
}

// parseNewsTuples extracts every tuple from one model response. Lines that
// do not match the grammar are ignored; a response with no matches yields an
// empty slice, never an error.
func parseNewsTuples(text string) []parsedTuple {
	matches := newsLineRe.FindAllStringSubmatch(text, -1)
	tuples := make([]parsedTuple, 0, len(matches))
	for _, m := range matches {
		headline := strings.TrimSpace(m[1])
		if headline == "" {
			continue
		}
		tuples = append(tuples, parsedTuple{
			headline:  headline,
			source:    strings.TrimSpace(m[2]),
			date:      strings.TrimSpace(m[3]),
			sentiment: normalizeSentiment(m[4]),
		})
	}
	return tuples
}

// normalizeSentiment lowercases and constrains the sentiment word; anything
// unrecognized becomes neutral.
func normalizeSentiment(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, models.SentimentPositive):
		return models.SentimentPositive
	case strings.Contains(s, models.SentimentNegative):
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// matchSource associates a headline with a grounding source by keyword
// overlap: any of the first four lowercased headline words appearing in a
// candidate title wins, first match taken. No match is acceptable.
func matchSource(headline string, sources []models.GroundingSource) *models.GroundingSource {
	words := strings.Fields(strings.ToLower(headline))
	if len(words) > 4 {
		words = words[:4]
	}

	for i := range sources {
		title := strings.ToLower(sources[i].Title)
		for _, w := range words {
			if strings.Contains(title, w) {
				return &sources[i]
			}
		}
	}
	return nil
}
