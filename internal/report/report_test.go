package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveydash/domain/dataset"
	"surveydash/domain/eligibility"
	elig "surveydash/internal/eligibility"
)

func buildReport(t *testing.T) *elig.InterventionReport {
	t.Helper()
	table := dataset.FromRecords(
		[]string{"gen_info/province", "gen_info/district", "gen_info/sex", "land"},
		[][]string{
			{"Kabul", "Paghman", "female", "0.1"},
			{"Kabul", "Paghman", "male", "0.5"},
			{"Herat", "Injil", "Female", ""},
		},
	)
	intervention := eligibility.Intervention{
		Name: "Gardening | pilot",
		Criteria: []eligibility.Criterion{
			eligibility.ValueCriterion("gen_info/sex", "female", "Female headed household"),
			eligibility.RangeCriterion([]string{"land"}, 0, 0.2, "Backyard up to 0.2 jerib"),
		},
	}
	r, err := elig.EvaluateIntervention(context.Background(), table, dataset.DefaultRegions(), intervention)
	require.NoError(t, err)
	return r
}

func TestMarkdown(t *testing.T) {
	md := Markdown(buildReport(t), Meta{Dataset: "AfghanAid IMM", Rows: 3, GeneratedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)})

	assert.True(t, strings.HasPrefix(md, `# Gardening \| pilot eligibility`))
	assert.Contains(t, md, "- Surveys: 3")
	assert.Contains(t, md, "- Generated: 2024-05-01T00:00:00Z")
	assert.Contains(t, md, "## 1. Female headed household")
	assert.Contains(t, md, "## 2. Backyard up to 0.2 jerib")
	assert.Contains(t, md, "| Kabul | Paghman | 2 | 50.00 | 50.00 | 0.00 |")
	assert.Contains(t, md, "| Herat | Injil | 1 | 0.00 | 0.00 | 100.00 |")
	assert.Contains(t, md, "## Average percentage for each eligibility criterion")
	assert.Contains(t, md, "| Female headed household | 75.00 |")
}

func TestHTML(t *testing.T) {
	page := string(HTML(Markdown(buildReport(t), Meta{Rows: 3}), "Gardening"))

	assert.Contains(t, page, "<title>Gardening</title>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<td>Paghman</td>")
	assert.NotContains(t, page, "Dataset:")
}

func TestCell(t *testing.T) {
	assert.Equal(t, `a \| b`, cell("a | b"))
	assert.Equal(t, "two lines", cell("two\n lines"))
}

func TestHTMLEscapesSurveyText(t *testing.T) {
	table := dataset.FromRecords(
		[]string{"gen_info/province", "gen_info/district", "gen_info/sex"},
		[][]string{
			{"<script>alert(1)</script>", "<img src=x onerror=alert(2)>", "female"},
			{"Kabul", "[x](javascript:alert(3))", "male"},
		},
	)
	intervention := eligibility.Intervention{
		Name:     "Wheat",
		Criteria: []eligibility.Criterion{eligibility.ValueCriterion("gen_info/sex", "female", "Female headed household")},
	}
	r, err := elig.EvaluateIntervention(context.Background(), table, dataset.DefaultRegions(), intervention)
	require.NoError(t, err)

	md := Markdown(r, Meta{Dataset: "<b>upload</b>.xlsx", Rows: 2})
	page := string(HTML(md, "<script>title</script>"))

	assert.NotContains(t, page, "<script>")
	assert.NotContains(t, page, "<img")
	assert.NotContains(t, page, "<b>")
	assert.NotContains(t, page, `href="javascript:`)
	assert.Contains(t, page, "&lt;script&gt;title&lt;/script&gt;")
}
