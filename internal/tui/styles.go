package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/tbeam/tbview/internal/model"
)

// Palette colors, replaced by InitializeSkin.
var (
	ColorNavy   = lipgloss.Color("#1B2A49")
	ColorBlue   = lipgloss.Color("#39A0ED")
	ColorGreen  = lipgloss.Color("#49E209")
	ColorOrange = lipgloss.Color("#FF9F1C")
	ColorRed    = lipgloss.Color("#E63946")
	ColorGray   = lipgloss.Color("#6C757D")
	ColorWhite  = lipgloss.Color("#F1FAEE")
)

// heatRamp is the color scale of 2D histograms, low to high.
var heatRamp = []lipgloss.Color{"17", "19", "25", "31", "37", "71", "107", "143", "179", "215", "209", "203", "197"}

var (
	sectionStyle       lipgloss.Style
	activeSectionStyle lipgloss.Style
	chartTitleStyle    lipgloss.Style
	helpStyle          lipgloss.Style
	tabStyle           lipgloss.Style
	activeTabStyle     lipgloss.Style
	statusStyle        lipgloss.Style
	errorStyle         lipgloss.Style
)

func init() {
	buildStyles()
}

func buildStyles() {
	sectionStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorGray).
		Padding(0, 1)
	activeSectionStyle = sectionStyle.BorderForeground(ColorBlue)
	chartTitleStyle = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)
	helpStyle = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
	tabStyle = lipgloss.NewStyle().Foreground(ColorGray).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Foreground(ColorWhite).Background(ColorBlue).Bold(true).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Background(ColorNavy).Foreground(ColorWhite)
	errorStyle = lipgloss.NewStyle().Background(ColorNavy).Foreground(ColorRed).Bold(true)
}

// Skin overrides palette colors. Empty fields keep the default.
type Skin struct {
	Name    string   `yaml:"name"`
	Navy    string   `yaml:"navy"`
	Blue    string   `yaml:"blue"`
	Green   string   `yaml:"green"`
	Orange  string   `yaml:"orange"`
	Red     string   `yaml:"red"`
	Gray    string   `yaml:"gray"`
	White   string   `yaml:"white"`
	HeatMap []string `yaml:"heatmap"`
}

// InitializeSkin loads <configDir>/skins/<name>.yml. The default skin needs
// no file.
func InitializeSkin(name, configDir string) error {
	if name == "" || name == model.DefaultSkin {
		return nil
	}
	path := filepath.Join(configDir, "skins", name+".yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var s Skin
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parse skin %s: %w", path, err)
	}
	applySkin(s)
	return nil
}

func applySkin(s Skin) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&ColorNavy, s.Navy)
	set(&ColorBlue, s.Blue)
	set(&ColorGreen, s.Green)
	set(&ColorOrange, s.Orange)
	set(&ColorRed, s.Red)
	set(&ColorGray, s.Gray)
	set(&ColorWhite, s.White)
	if len(s.HeatMap) >= 2 {
		heatRamp = heatRamp[:0]
		for _, c := range s.HeatMap {
			heatRamp = append(heatRamp, lipgloss.Color(c))
		}
	}
	buildStyles()
}
