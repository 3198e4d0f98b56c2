package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/AbdouB/dialogue/internal/engine"
	"github.com/AbdouB/dialogue/internal/models"
)

// Styles for --text output
var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	styleHeading = lipgloss.NewStyle().Bold(true)
	styleGray    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleGreen   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleYellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleRed     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleBox     = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
)

func severityStyle(s models.Severity) lipgloss.Style {
	switch s {
	case models.SeverityHigh:
		return styleRed
	case models.SeverityMedium:
		return styleYellow
	}
	return styleGray
}

// renderText writes a human-readable rendering of result
func renderText(w io.Writer, result interface{}) error {
	var b strings.Builder
	switch v := result.(type) {
	case *models.GeneratedResponse:
		renderResponse(&b, v)
	case []*models.GeneratedResponse:
		for _, resp := range v {
			renderResponse(&b, resp)
		}
	case []engine.VariantResponse:
		for _, vr := range v {
			b.WriteString(styleGray.Render("variant: "+string(vr.Variant)) + "\n")
			renderResponse(&b, vr.Response)
		}
	case []models.StakeholderProfile:
		for _, p := range v {
			fmt.Fprintf(&b, "%s  %s\n", styleHeading.Render(fmt.Sprintf("%-22s", p.ID)), p.Name)
		}
	case models.StakeholderProfile:
		renderProfile(&b, v)
	case []models.ContextProfile:
		for _, c := range v {
			fmt.Fprintf(&b, "%s  %s\n  %s\n", styleHeading.Render(fmt.Sprintf("%-16s", c.ID)), c.Name, styleGray.Render(c.Description))
		}
	case []models.VariantProfile:
		for _, vp := range v {
			fmt.Fprintf(&b, "%s  %s\n  %s\n", styleHeading.Render(fmt.Sprintf("%-13s", vp.ID)), vp.Name, styleGray.Render(vp.FramingPreference))
		}
	case metricResult:
		value := styleGray.Render("null")
		if v.Value != nil {
			value = engine.FormatValue(*v.Value)
		}
		fmt.Fprintf(&b, "%s = %s\n", v.Path, value)
	case []models.ScenarioSummary:
		if len(v) == 0 {
			b.WriteString(styleGray.Render("No saved scenarios") + "\n")
		}
		for _, s := range v {
			renderSummary(&b, s)
		}
	case models.ScenarioSummary:
		renderSummary(&b, v)
	case *models.SentimentReport:
		renderSentiment(&b, v)
	default:
		fmt.Fprintf(&b, "%+v\n", result)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderResponse(b *strings.Builder, r *models.GeneratedResponse) {
	header := styleTitle.Render(r.StakeholderName)
	if r.GenerationType == models.GenerationAIEnhanced {
		header += styleGray.Render("  (enhanced)")
	}
	if md := r.Metadata; md != nil && md.Context != "" {
		header += styleGray.Render(fmt.Sprintf("  %s / %s", md.Context, md.Variant))
	}
	b.WriteString(header + "\n")
	b.WriteString(styleBox.Render(r.InitialReaction) + "\n")

	if len(r.Appreciation) > 0 {
		b.WriteString(styleHeading.Render("Appreciates") + "\n")
		for _, a := range r.Appreciation {
			b.WriteString(styleGreen.Render("  + ") + a + "\n")
		}
	}
	if len(r.Concerns) > 0 {
		b.WriteString(styleHeading.Render("Concerns") + "\n")
		for _, c := range r.Concerns {
			tag := severityStyle(c.Severity).Render(fmt.Sprintf("[%s]", c.Severity))
			fmt.Fprintf(b, "  %s %s\n", tag, c.Text)
			if c.Explanation != "" {
				b.WriteString("      " + styleGray.Render(c.Explanation) + "\n")
			}
		}
	}
	b.WriteString(styleHeading.Render("Questions") + "\n")
	for _, q := range r.Questions {
		b.WriteString("  ? " + q + "\n")
	}
	b.WriteString(styleHeading.Render("Engagement advice") + "\n")
	for _, a := range r.EngagementAdvice {
		b.WriteString("  - " + a + "\n")
	}
	b.WriteString("\n")
}

func renderProfile(b *strings.Builder, p models.StakeholderProfile) {
	b.WriteString(styleTitle.Render(p.Name) + styleGray.Render("  "+string(p.ID)) + "\n")
	b.WriteString(p.Description + "\n")
	list := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString(styleHeading.Render(title) + "\n")
		for _, item := range items {
			b.WriteString("  - " + item + "\n")
		}
	}
	list("Priorities", p.Priorities)
	list("Typical questions", p.TypicalQuestions)
	list("Challenges", p.Challenges)
	list("Good practices", p.GoodPractices)

	if len(p.ConcernTriggers) > 0 {
		b.WriteString(styleHeading.Render("Concern triggers") + "\n")
		rules := make([]string, 0, len(p.ConcernTriggers))
		for _, r := range p.ConcernTriggers {
			rules = append(rules, fmt.Sprintf("  %s %s %s", r.Metric, r.Direction, engine.FormatValue(r.Threshold)))
		}
		sort.Strings(rules)
		b.WriteString(strings.Join(rules, "\n") + "\n")
	}
}

var sentimentArrows = map[models.SentimentDirection]string{
	models.SentimentPositive: styleGreen.Render("↗"),
	models.SentimentNegative: styleRed.Render("↘"),
	models.SentimentNeutral:  styleGray.Render("→"),
}

func renderSentiment(b *strings.Builder, r *models.SentimentReport) {
	target := func(name, base, adjusted string) {
		line := fmt.Sprintf("  %-14s %s", name, base)
		if adjusted != base {
			line += styleHeading.Render(" -> " + adjusted)
		}
		b.WriteString(line + "\n")
	}
	pct := func(v float64) string { return engine.FormatValue(v) + "%" }
	year := func(v float64) string { return strconv.Itoa(int(v)) }
	b.WriteString(styleTitle.Render("Targets") + "\n")
	target("RE share 2030", pct(r.Base.REShare2030), pct(r.Adjusted.REShare2030))
	target("RE share 2040", pct(r.Base.REShare2040), pct(r.Adjusted.REShare2040))
	target("Coal phaseout", year(r.Base.CoalPhaseout), year(r.Adjusted.CoalPhaseout))
	b.WriteString("\n")

	for _, c := range r.Changes {
		label := string(c.Direction)
		if c.Direction != models.SentimentNeutral {
			label = fmt.Sprintf("%s, %s", c.Direction, c.Magnitude)
		}
		fmt.Fprintf(b, "%s %s %s\n", sentimentArrows[c.Direction], styleHeading.Render(c.StakeholderName), styleGray.Render("("+label+")"))
		for _, f := range c.PositiveFactors {
			b.WriteString(styleGreen.Render("    + ") + f + "\n")
		}
		for _, f := range c.NegativeFactors {
			b.WriteString(styleRed.Render("    - ") + f + "\n")
		}
	}
}

func renderSummary(b *strings.Builder, s models.ScenarioSummary) {
	updated := time.UnixMilli(int64(s.UpdatedTimestamp * 1000)).UTC().Format(time.DateTime)
	fmt.Fprintf(b, "%s  %s  %s\n", styleHeading.Render(s.Name), s.Country, styleGray.Render(updated+"  "+s.ID))
}
