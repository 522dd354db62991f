package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the resolved target
func PrintBanner(config *Config, logger arbor.ILogger) {
	b := banner.New().SetBold(true)
	b.PrintTopLine()
	b.PrintCenteredText("ChatProbe")
	b.PrintCenteredText("Version " + GetVersion())
	b.PrintSeparatorLine()
	b.PrintKeyValue("Target", config.Target.BaseURL, 10)
	b.PrintKeyValue("Settle", config.Settle.Strategy, 10)
	b.PrintBottomLine()

	logger.Info().
		Str("base_url", config.Target.BaseURL).
		Str("settle_strategy", config.Settle.Strategy).
		Bool("headless", config.Browser.Headless).
		Str("artifacts_dir", config.Artifacts.Dir).
		Msg("Harness configuration resolved")
}
