package indicators

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/chatprobe/internal/models"
)

func snapshot(markup string) models.Snapshot {
	return models.NewSnapshot(markup, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
}

func TestPredicates(t *testing.T) {
	snap := snapshot(`<div>Apex Motors leads on Facebook. APEX MOTORS also runs Display.</div>`)

	tests := []struct {
		name      string
		predicate models.Predicate
		want      bool
	}{
		{"contains is case-insensitive", Contains("FACEBOOK"), true},
		{"contains misses", Contains("google"), false},
		{"any hits one", ContainsAny("google", "display"), true},
		{"any misses all", ContainsAny("google", "reels"), false},
		{"all needs every keyword", ContainsAll("facebook", "display"), true},
		{"all fails on one missing", ContainsAll("facebook", "google"), false},
		{"all with no keywords never holds", ContainsAll(), false},
		{"min count reached", MinCount("apex motors", 2), true},
		{"min count not reached", MinCount("apex motors", 3), false},
		{"min count empty needle", MinCount("", 1), false},
		{"not inverts", Not(Contains("google")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.predicate.Match(snap))
		})
	}
}

func TestPredicateString(t *testing.T) {
	assert.Equal(t, `contains("news feed")`, Contains("News Feed").String())
	assert.Equal(t, `any("cpm", "ctr")`, ContainsAny("CPM", "ctr").String())
	assert.Equal(t, `all("facebook", "google")`, ContainsAll("facebook", "google").String())
	assert.Equal(t, `count("apex motors")>=2`, MinCount("apex motors", 2).String())
	assert.Equal(t, `not(contains("x"))`, Not(Contains("x")).String())
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		values  []string
		count   int
		wantErr bool
		want    string
	}{
		{"contains", TypeContains, []string{"stories"}, 0, false, `contains("stories")`},
		{"contains with two values", TypeContains, []string{"a", "b"}, 0, true, ""},
		{"contains_any", TypeContainsAny, []string{"reels", "marketplace"}, 0, false, `any("reels", "marketplace")`},
		{"contains_all", TypeContainsAll, []string{"facebook", "google"}, 0, false, `all("facebook", "google")`},
		{"min_count", TypeMinCount, []string{"apex motors"}, 2, false, `count("apex motors")>=2`},
		{"min_count without count", TypeMinCount, []string{"apex motors"}, 0, true, ""},
		{"not_contains", TypeNotContains, []string{"error"}, 0, false, `not(any("error"))`},
		{"no values", TypeContains, nil, 0, true, ""},
		{"unknown type", "regex", []string{".*"}, 0, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predicate, err := Build(tt.kind, tt.values, tt.count)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, predicate.String())
		})
	}
}

func TestEvaluate_FacebookNewsFeed(t *testing.T) {
	scenario := models.Scenario{
		Ordinal: 1,
		Name:    "facebook_products",
		Input:   "Show me all Facebook Ads products",
		Settle:  models.SettleChat,
		Groups: []models.IndicatorGroup{{
			Label:      "placements",
			Predicates: []models.Predicate{Contains("facebook"), ContainsAny("news feed", "stories")},
		}},
	}

	result := Evaluate(scenario, snapshot(`<main><p>Placements: News Feed, Right Column</p></main>`))

	require.Len(t, result.Groups, 1)
	assert.True(t, result.Groups[0].Passed)
	assert.Equal(t, []string{`any("news feed", "stories")`}, result.Groups[0].Matched)
	assert.True(t, result.Passed)
	assert.Equal(t, 1, result.Ordinal)
	assert.Equal(t, "facebook_products", result.Name)
}

func TestEvaluate_OverallIsOrOfGroups(t *testing.T) {
	groups := func(hits ...bool) []models.IndicatorGroup {
		out := make([]models.IndicatorGroup, len(hits))
		for i, hit := range hits {
			keyword := "absent-keyword"
			if hit {
				keyword = "present"
			}
			out[i] = models.IndicatorGroup{
				Label:      string(rune('a' + i)),
				Predicates: []models.Predicate{Contains("also-absent"), Contains(keyword)},
			}
		}
		return out
	}

	tests := []struct {
		name string
		hits []bool
		want bool
	}{
		{"all groups fail", []bool{false, false, false}, false},
		{"single group passes", []bool{false, true, false}, true},
		{"every group passes", []bool{true, true, true}, true},
	}

	snap := snapshot("<p>present</p>")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(models.Scenario{Name: "or", Groups: groups(tt.hits...)}, snap)
			assert.Equal(t, tt.want, result.Passed)
			for i, verdict := range result.Groups {
				assert.Equal(t, tt.hits[i], verdict.Passed, "group %d", i)
			}
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	scenario := models.Scenario{
		Name: "comparison",
		Groups: []models.IndicatorGroup{
			{Label: "both", Predicates: []models.Predicate{ContainsAll("facebook", "google")}},
			{Label: "metrics", Predicates: []models.Predicate{ContainsAny("cpm", "ctr", "spend")}},
		},
	}
	snap := snapshot("<table><tr><td>Facebook</td><td>CTR 1.2%</td></tr></table>")

	first := Evaluate(scenario, snap)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Evaluate(scenario, snap))
	}
}

func TestExcerpt(t *testing.T) {
	markup := `<html><head><style>body{color:red}</style></head><body>
		<nav>Sidebar</nav>
		<script>window.secret = 1</script>
		<p>Apex   Motors
		is performing well</p></body></html>`

	assert.Equal(t, "Sidebar Apex Motors is performing well", VisibleText(markup))
	assert.Equal(t, "…performing well", Excerpt(markup, 16))
	assert.Equal(t, "Sidebar Apex Motors is performing well", Excerpt(markup, 0))
	assert.Equal(t, "", Excerpt("", 10))

	long := "<p>" + strings.Repeat("é", 50) + "</p>"
	assert.Equal(t, "…"+strings.Repeat("é", 10), Excerpt(long, 10), "excerpt cuts on runes")
}

func TestNewEvaluatorDefaults(t *testing.T) {
	assert.Equal(t, DefaultExcerptLength, NewEvaluator(0).ExcerptLength)
	assert.Equal(t, 80, NewEvaluator(80).ExcerptLength)
}
