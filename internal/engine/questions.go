package engine

import (
	"slices"
	"strconv"
	"strings"

	"github.com/AbdouB/dialogue/internal/models"
	"github.com/AbdouB/dialogue/internal/search"
)

// Question count bounds
const (
	MinQuestions = 3
	MaxQuestions = 5

	// concerns that get a related question pulled forward
	questionsForConcerns = 2
)

// topic maps a metric fragment to the words questions about it use
type topic struct {
	fragment string
	keywords []string
}

// topics are checked in order; the first fragment found in a metric wins
var topics = []topic{
	{"battery", []string{"storage", "battery", "flexibility", "intermittency", "reliability"}},
	{"landUse", []string{"land", "communities", "community", "environmental", "local"}},
	{"renewableShare", []string{"renewable", "integration", "grid", "reliability", "stability"}},
	{"jobs", []string{"jobs", "employment", "workers", "skills", "transition"}},
	{"emissions", []string{"emissions", "climate", "ndc", "paris", "commitments"}},
	{"investment", []string{"investment", "financing", "finance", "cost", "tariffs", "bankable", "debt"}},
	{"generation", []string{"generation", "supply", "demand"}},
	{"capacity", []string{"capacity", "infrastructure", "transmission", "interconnector", "grid"}},
}

// fallbackQuestions top up stakeholders with few declared questions
var fallbackQuestions = []string{
	"What assumptions drive the key results of this scenario?",
	"How sensitive are the results to changes in costs and demand?",
	"What are the next steps and how can we stay involved?",
}

func topicKeywords(metricPaths []string) []string {
	for _, tp := range topics {
		for _, m := range metricPaths {
			if strings.Contains(strings.ToLower(m), strings.ToLower(tp.fragment)) {
				return tp.keywords
			}
		}
	}
	return nil
}

// selectQuestions pulls forward one related question for each of the most
// severe concerns, then fills from the declared questions in order.
// concernMetrics maps a concern to the metric paths behind it.
func selectQuestions(profile models.StakeholderProfile, concerns []models.Concern, concernMetrics func(models.Concern) []string) []string {
	items := make([]search.SearchItem, len(profile.TypicalQuestions))
	for i, q := range profile.TypicalQuestions {
		items[i] = search.SearchItem{ID: strconv.Itoa(i), Text: q}
	}

	used := make(map[int]bool)
	questions := make([]string, 0, MaxQuestions)

	top := bySeverity(concerns)
	top = top[:min(len(top), questionsForConcerns)]
	for _, c := range top {
		keywords := topicKeywords(concernMetrics(c))
		if len(keywords) == 0 {
			continue
		}
		for _, r := range search.FuzzySearchAny(keywords, items, search.WordMatch) {
			if !used[r.Index] {
				used[r.Index] = true
				questions = append(questions, r.Text)
				break
			}
		}
	}

	for i, q := range profile.TypicalQuestions {
		if len(questions) == MaxQuestions {
			break
		}
		if !used[i] {
			used[i] = true
			questions = append(questions, q)
		}
	}

	for _, q := range fallbackQuestions {
		if len(questions) >= MinQuestions {
			break
		}
		if !slices.Contains(questions, q) {
			questions = append(questions, q)
		}
	}
	return questions
}

// bySeverity returns concerns ordered most severe first, keeping
// declaration order among equals
func bySeverity(concerns []models.Concern) []models.Concern {
	sorted := slices.Clone(concerns)
	slices.SortStableFunc(sorted, func(a, b models.Concern) int {
		return b.Severity.Rank() - a.Severity.Rank()
	})
	return sorted
}
