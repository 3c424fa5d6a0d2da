package ui

import (
	"charm.land/lipgloss/v2"

	"codequest/internal/practice"
)

type Theme struct {
	Header        lipgloss.Style
	Status        lipgloss.Style
	PanelBorder   lipgloss.Style
	FocusBorder   lipgloss.Style
	PanelBody     lipgloss.Style
	Overlay       lipgloss.Style
	OverlayTitle  lipgloss.Style
	Accent        lipgloss.Style
	Pass          lipgloss.Style
	Fail          lipgloss.Style
	Pending       lipgloss.Style
	Muted         lipgloss.Style
	Banner        lipgloss.Style
	Divider       lipgloss.Style
	DividerActive lipgloss.Style
	Easy          lipgloss.Style
	Medium        lipgloss.Style
	Hard          lipgloss.Style
}

func DefaultTheme() Theme {
	return ThemeForVariant("midnight")
}

func ThemeForVariant(variant string) Theme {
	switch variant {
	case "daylight":
		return daylightTheme()
	case "retro":
		return retroTheme()
	default:
		return midnightTheme()
	}
}

// Difficulty styles a difficulty tag; unknown values render muted.
func (t Theme) Difficulty(d practice.Difficulty) lipgloss.Style {
	switch d {
	case practice.DifficultyEasy:
		return t.Easy
	case practice.DifficultyMedium:
		return t.Medium
	case practice.DifficultyHard:
		return t.Hard
	default:
		return t.Muted
	}
}

func midnightTheme() Theme {
	green := lipgloss.Color("#6EE7A8")
	yellow := lipgloss.Color("#F5C96A")
	red := lipgloss.Color("#FF7A90")
	ink := lipgloss.Color("#0F1522")
	slate := lipgloss.Color("#1D2A42")
	text := lipgloss.Color("#E6EDF8")
	cyan := lipgloss.Color("#6CD4FF")
	border := lipgloss.Color("#465A82")

	return Theme{
		Header:      lipgloss.NewStyle().Background(ink).Foreground(text).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(slate).Foreground(text).Padding(0, 1),
		PanelBorder: lipgloss.NewStyle().Foreground(border),
		FocusBorder: lipgloss.NewStyle().Foreground(cyan),
		PanelBody:   lipgloss.NewStyle().Foreground(text),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(cyan).
			Background(ink).
			Foreground(text).
			Padding(1, 2),
		OverlayTitle:  lipgloss.NewStyle().Foreground(cyan).Bold(true),
		Accent:        lipgloss.NewStyle().Foreground(cyan).Bold(true),
		Pass:          lipgloss.NewStyle().Foreground(green).Bold(true),
		Fail:          lipgloss.NewStyle().Foreground(red).Bold(true),
		Pending:       lipgloss.NewStyle().Foreground(yellow),
		Muted:         lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3C0")),
		Banner:        lipgloss.NewStyle().Foreground(red),
		Divider:       lipgloss.NewStyle().Foreground(border),
		DividerActive: lipgloss.NewStyle().Foreground(cyan).Bold(true),
		Easy:          lipgloss.NewStyle().Foreground(green),
		Medium:        lipgloss.NewStyle().Foreground(yellow),
		Hard:          lipgloss.NewStyle().Foreground(red),
	}
}

func daylightTheme() Theme {
	green := lipgloss.Color("#1F8A4C")
	amber := lipgloss.Color("#A86A00")
	red := lipgloss.Color("#C0364F")
	paper := lipgloss.Color("#F7F8FB")
	bar := lipgloss.Color("#DCE3EF")
	text := lipgloss.Color("#1E2633")
	blue := lipgloss.Color("#2F6FD6")
	border := lipgloss.Color("#9AA8BF")

	return Theme{
		Header:      lipgloss.NewStyle().Background(paper).Foreground(text).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(bar).Foreground(text).Padding(0, 1),
		PanelBorder: lipgloss.NewStyle().Foreground(border),
		FocusBorder: lipgloss.NewStyle().Foreground(blue),
		PanelBody:   lipgloss.NewStyle().Foreground(text),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Background(paper).
			Foreground(text).
			Padding(1, 2),
		OverlayTitle:  lipgloss.NewStyle().Foreground(blue).Bold(true),
		Accent:        lipgloss.NewStyle().Foreground(blue).Bold(true),
		Pass:          lipgloss.NewStyle().Foreground(green).Bold(true),
		Fail:          lipgloss.NewStyle().Foreground(red).Bold(true),
		Pending:       lipgloss.NewStyle().Foreground(amber),
		Muted:         lipgloss.NewStyle().Foreground(lipgloss.Color("#66728A")),
		Banner:        lipgloss.NewStyle().Foreground(red),
		Divider:       lipgloss.NewStyle().Foreground(border),
		DividerActive: lipgloss.NewStyle().Foreground(blue).Bold(true),
		Easy:          lipgloss.NewStyle().Foreground(green),
		Medium:        lipgloss.NewStyle().Foreground(amber),
		Hard:          lipgloss.NewStyle().Foreground(red),
	}
}

func retroTheme() Theme {
	lime := lipgloss.Color("#9CF5A2")
	amber := lipgloss.Color("#E5D47A")
	red := lipgloss.Color("#FF6B6B")
	deep := lipgloss.Color("#07150A")
	forest := lipgloss.Color("#12301A")
	glow := lipgloss.Color("#C5F7C4")

	return Theme{
		Header:      lipgloss.NewStyle().Background(deep).Foreground(glow).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(forest).Foreground(glow).Padding(0, 1),
		PanelBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#1F5C2F")),
		FocusBorder: lipgloss.NewStyle().Foreground(lime),
		PanelBody:   lipgloss.NewStyle().Foreground(glow),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(amber).
			Background(deep).
			Foreground(glow).
			Padding(1, 2),
		OverlayTitle:  lipgloss.NewStyle().Foreground(amber).Bold(true),
		Accent:        lipgloss.NewStyle().Foreground(lime).Bold(true),
		Pass:          lipgloss.NewStyle().Foreground(lime).Bold(true),
		Fail:          lipgloss.NewStyle().Foreground(red).Bold(true),
		Pending:       lipgloss.NewStyle().Foreground(amber),
		Muted:         lipgloss.NewStyle().Foreground(lipgloss.Color("#73A17A")),
		Banner:        lipgloss.NewStyle().Foreground(red),
		Divider:       lipgloss.NewStyle().Foreground(forest),
		DividerActive: lipgloss.NewStyle().Foreground(amber).Bold(true),
		Easy:          lipgloss.NewStyle().Foreground(lime),
		Medium:        lipgloss.NewStyle().Foreground(amber),
		Hard:          lipgloss.NewStyle().Foreground(red),
	}
}
