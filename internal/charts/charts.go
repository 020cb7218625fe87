// Package charts renders suggestion runs as interactive HTML reports.
package charts

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/doomsday-companion/internal/engine"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title    string
	Subtitle string
	Width    string // e.g. "900px"
	Height   string
	Theme    string
	Colors   []string
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Title:  "Doomsday piles",
		Width:  "900px",
		Height: "500px",
		Theme:  "light",
		Colors: []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272", "#FC8452", "#9A60B4", "#EA7CCC"},
	}
}

// RenderSuggestions writes a page with two charts: turns to win and risk
// score per ranked pile, and the spread of simulated outcomes.
func RenderSuggestions(w io.Writer, records []engine.SuggestionRecord, config ChartConfig) error {
	if len(records) == 0 {
		return fmt.Errorf("no suggestions to chart")
	}

	page := components.NewPage()
	page.PageTitle = config.Title
	page.AddCharts(rankingChart(records, config), outcomeChart(records, config))

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderSuggestionsFile writes the report to outputPath.
func RenderSuggestionsFile(outputPath string, records []engine.SuggestionRecord, config ChartConfig) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	return RenderSuggestions(f, records, config)
}

func globalOpts(config ChartConfig, subtitle string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "bottom",
		}),
		charts.WithColorsOpts(opts.Colors(config.Colors)),
	}
}

func rankingChart(records []engine.SuggestionRecord, config ChartConfig) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(config, "Turns to win and risk score by rank")...)

	labels := make([]string, len(records))
	turns := make([]opts.BarData, len(records))
	risk := make([]opts.BarData, len(records))
	for i, rec := range records {
		labels[i] = fmt.Sprintf("#%d", i+1)
		tip := strings.Join(rec.Pile, ", ") + " (" + rec.Outcome.String() + ")"
		turns[i] = opts.BarData{Name: tip, Value: rec.TurnsToWin}
		risk[i] = opts.BarData{Name: tip, Value: rec.RiskScore}
	}

	bar.SetXAxis(labels).
		AddSeries("Turns to win", turns).
		AddSeries("Risk score", risk).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)
	return bar
}

func outcomeChart(records []engine.SuggestionRecord, config ChartConfig) *charts.Pie {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.Outcome.String()]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	data := make([]opts.PieData, len(names))
	for i, name := range names {
		data[i] = opts.PieData{Name: name, Value: counts[name]}
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOpts(config, "Simulated outcomes")...)
	pie.AddSeries("Outcome", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{b}: {c}",
			}),
		)
	return pie
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
