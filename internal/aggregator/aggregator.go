package aggregator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/andrewsem/factwatch/internal/adapters/ai"
	"github.com/andrewsem/factwatch/pkg/logger"
	"github.com/andrewsem/factwatch/pkg/models"
)

// searchCategory is one fixed query class. Declared order drives relevance
// weighting, so output ranking is deterministic regardless of which query
// completes first.
type searchCategory struct {
	name   string
	prompt string
	count  int
}

var categories = []searchCategory{
	{name: "Breaking News", count: 12, prompt: "most recent news headlines about"},
	{name: "Financial", count: 10, prompt: "financial news about"},
	{name: "Product/Innovation", count: 8, prompt: "product launches and innovation news about"},
	{name: "Partnerships", count: 6, prompt: "partnership and business deals news about"},
	{name: "Legal/Regulatory", count: 4, prompt: "regulatory and legal news about"},
}

const tupleFormat = "Format: NEWS: [headline] | SOURCE: [source] | DATE: [date] | SENTIMENT: [positive/negative/neutral]"

// queryFanout bounds concurrent category queries to stay friendly to
// upstream rate limits.
const queryFanout = 3

// Aggregator issues the categorized query set through the resilient caller
// and folds responses into raw news items.
type Aggregator struct {
	caller ai.Generator
	model  string
}

// New creates a news aggregator on top of the resilient caller.
func New(caller ai.Generator, model string) *Aggregator {
	return &Aggregator{caller: caller, model: model}
}

// Aggregate runs every categorized query for the entity and returns the
// merged item list, sorted by relevance weight. A failed query is logged and
// skipped; zero successful queries yield an empty list, not an error.
func (a *Aggregator) Aggregate(ctx context.Context, entityName, websiteHint, period string) []models.RawNewsItem {
	siteHint := siteFilter(websiteHint)
	dateFilter := datePhrase(period)

	perCategory := make([][]models.RawNewsItem, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(queryFanout)

	for i, cat := range categories {
		// Only the first category is narrowed to the official site.
		hint := ""
		if i == 0 {
			hint = siteHint
		}
		query := buildQuery(cat, entityName, dateFilter, hint)

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			result, err := a.caller.Generate(gctx, &ai.GenerateRequest{
				Model:       a.model,
				Prompt:      query,
				Temperature: 0.2,
				WithSearch:  true,
			})
			if err != nil {
				logger.Warn("category query failed",
					zap.String("category", cat.name),
					zap.Error(err),
				)
				return nil
			}

			perCategory[i] = buildItems(result, cat.name, entityName, relevanceWeight(i))
			return nil
		})
	}
	// Sub-tasks never return errors; failures are absorbed per category.
	_ = g.Wait()

	var all []models.RawNewsItem
	for _, items := range perCategory {
		all = append(all, items...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].RelevanceWeight > all[j].RelevanceWeight
	})

	logger.Info("aggregation pass complete",
		zap.String("entity", entityName),
		zap.String("period", period),
		zap.Int("items", len(all)),
	)

	return all
}

// buildItems parses one response and enriches each tuple with a matched
// grounding source and the category's relevance weight.
func buildItems(result *ai.GenerateResult, category, entityName string, weight float64) []models.RawNewsItem {
	tuples := parseNewsTuples(result.Text)
	items := make([]models.RawNewsItem, 0, len(tuples))

	for _, t := range tuples {
		item := models.RawNewsItem{
			Headline:        t.headline,
			Summary:         fmt.Sprintf("%s about %s", category, entityName),
			SourceName:      t.source,
			ReportedDate:    t.date,
			Category:        category,
			Sentiment:       t.sentiment,
			RelevanceWeight: weight,
		}
		if src := matchSource(t.headline, result.Sources); src != nil {
			item.SourceURL = src.URI
			item.Snippet = src.Snippet
		}
		items = append(items, item)
	}
	return items
}

// relevanceWeight decreases monotonically by declared category order.
func relevanceWeight(categoryIndex int) float64 {
	return 0.9 - 0.1*float64(categoryIndex)
}

func buildQuery(cat searchCategory, entityName, dateFilter, siteHint string) string {
	return fmt.Sprintf("Find %d %s %s %s%s. %s",
		cat.count, cat.prompt, entityName, dateFilter, siteHint, tupleFormat)
}

// datePhrase turns a period into the natural-language window the search
// prompt carries.
func datePhrase(period string) string {
	switch period {
	case "week":
		return "published in the last 7 days"
	case "month":
		return "published in the last 30 days"
	case "year":
		return "published in the last 365 days or this year"
	default:
		return "published today or in the last 24 hours"
	}
}

// siteFilter derives a " site:host" hint from the entity's official website.
func siteFilter(website string) string {
	if website == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.TrimPrefix(website, "https://"), "http://")
	if i := strings.Index(host, "/"); i >= 0 {
		host = host[:i]
	}
	if host == "" {
		return ""
	}
	return " site:" + host
}
