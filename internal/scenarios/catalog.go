// Package scenarios provides the scenario sequence a run executes: the
// built-in multi-platform catalog and scenarios declared in TOML or YAML files.
package scenarios

import (
	"github.com/ternarybob/chatprobe/internal/indicators"
	"github.com/ternarybob/chatprobe/internal/models"
)

// Builtin returns the multi-platform catalog in execution order.
// Scenarios without a path reuse the page left by the previous scenario,
// so chat queries 2, 3 and 6 continue the conversation started before them.
func Builtin() []models.Scenario {
	return []models.Scenario{
		{
			Ordinal: 1,
			Name:    "facebook_products",
			Title:   "Platform-Specific Inventory Discovery - Facebook Products",
			Path:    "/",
			Input:   "Show me all Facebook Ads products",
			Settle:  models.SettleChat,
			Groups: []models.IndicatorGroup{
				group("brand", indicators.Contains("facebook_ads"), indicators.Contains("facebook")),
				group("placements", indicators.ContainsAny("news feed", "stories")),
				group("surfaces", indicators.ContainsAny("reels", "marketplace")),
			},
		},
		{
			Ordinal: 2,
			Name:    "google_performance",
			Title:   "Platform-Specific Performance - Google Ads",
			Input:   "How are our Google Ads campaigns performing?",
			Settle:  models.SettleChat,
			Groups: []models.IndicatorGroup{
				group("platform", indicators.Contains("google")),
				group("metrics", indicators.ContainsAny("quality score", "impression share")),
				group("advertisers", indicators.ContainsAny("apex motors", "techflow")),
			},
		},
		{
			Ordinal: 3,
			Name:    "apex_cross_platform",
			Title:   "Cross-Platform Brand Query - Apex Motors",
			Input:   "How is Apex Motors performing across all platforms?",
			Settle:  models.SettleAggregation,
			Groups: []models.IndicatorGroup{
				group("brand repeated", indicators.MinCount("apex motors", 2)),
				group("channels", indicators.ContainsAny("display", "facebook")),
				group("platforms", indicators.ContainsAny("google", "platform")),
			},
		},
		{
			Ordinal: 4,
			Name:    "dashboard_media_buys",
			Title:   "Dashboard - Media Buys View",
			Path:    "/dashboard/media-buys",
			Settle:  models.SettleNavigation,
			Groups: []models.IndicatorGroup{
				group("brand", indicators.Contains("apex motors")),
				group("advertisers", indicators.ContainsAny("techflow", "sportmax")),
				group("platforms", indicators.ContainsAny("platform", "facebook")),
			},
		},
		{
			Ordinal: 5,
			Name:    "backward_compat",
			Title:   "Backward Compatibility - Original Campaign",
			Path:    "/",
			Input:   "Show me the Apex Motors Q1 campaign details",
			Settle:  models.SettleChat,
			Groups: []models.IndicatorGroup{
				group("brand", indicators.Contains("apex motors")),
				group("channels", indicators.ContainsAny("display", "programmatic")),
				group("campaign", indicators.ContainsAny("mb_apex_motors_q1", "campaign")),
			},
		},
		{
			Ordinal: 6,
			Name:    "platform_comparison",
			Title:   "Platform Comparison Query",
			Input:   "Compare Facebook vs Google Ads performance",
			Settle:  models.SettleAggregation,
			Groups: []models.IndicatorGroup{
				group("both platforms", indicators.ContainsAll("facebook", "google")),
				group("comparison", indicators.ContainsAny("comparison", "versus", "vs")),
				group("metrics", indicators.ContainsAny("cpm", "ctr", "spend", "performance")),
			},
		},
	}
}

func group(label string, predicates ...models.Predicate) models.IndicatorGroup {
	return models.IndicatorGroup{Label: label, Predicates: predicates}
}

// Select keeps the scenarios whose name is listed, preserving declaration order.
// An empty selection returns all scenarios.
func Select(all []models.Scenario, names []string) []models.Scenario {
	if len(names) == 0 {
		return all
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	selected := make([]models.Scenario, 0, len(names))
	for _, scenario := range all {
		if wanted[scenario.Name] {
			selected = append(selected, scenario)
		}
	}
	return selected
}

// WithArtifactTemplate returns a copy of the scenarios with the template applied
// wherever a scenario does not declare its own.
func WithArtifactTemplate(all []models.Scenario, template string) []models.Scenario {
	out := make([]models.Scenario, len(all))
	copy(out, all)
	if template == "" {
		return out
	}
	for i := range out {
		if out[i].ArtifactTemplate == "" {
			out[i].ArtifactTemplate = template
		}
	}
	return out
}
