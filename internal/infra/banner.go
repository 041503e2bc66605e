package infra

import (
	"fmt"
	"strings"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner with mode-specific warnings.
func PrintBanner(cfg *Config) {
	mode := strings.ToUpper(cfg.Trading.Mode)
	version := cfg.App.Version

	color := ColorGreen
	modeDesc := "SIMULATION"

	switch mode {
	case "REAL":
		color = ColorRed
		modeDesc = "REAL MONEY TRADING"
	case "MOCK":
		color = ColorYellow
		modeDesc = "LOG-ONLY DRY RUN"
	}

	fmt.Println(ColorCyan + "=========================================" + ColorReset)
	fmt.Printf("  UpstoX Trader v%s\n", version)
	fmt.Printf("  Mode: %s%s (%s)%s\n", color, mode, modeDesc, ColorReset)
	fmt.Println(ColorCyan + "=========================================" + ColorReset)

	if mode == "REAL" {
		fmt.Println(ColorRed + "  ⚠️  Orders placed in this mode hit the exchange" )
		fmt.Println("  ⚠️  with real funds. Ctrl+C now if unintended." + ColorReset)
	}
}
