package loginpage

import "fmt"

// Color is the accent color for the login page.
type Color string

const (
	ColorRed    Color = "red"
	ColorPink   Color = "pink"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorPurple Color = "purple"
	ColorOrange Color = "orange"
)

// ThemeMode selects light or dark rendering; auto follows the browser.
type ThemeMode string

const (
	ThemeDark  ThemeMode = "dark"
	ThemeAuto  ThemeMode = "auto"
	ThemeLight ThemeMode = "light"
)

// Style holds the rendering parameters for the login page. It is pure
// data: the engine passes it through to the renderer untouched.
type Style struct {
	Color     Color     `json:"color"`
	ThemeMode ThemeMode `json:"theme_mode"`
}

// DefaultStyle returns the blue/auto style used when a host configures none.
func DefaultStyle() Style {
	return Style{Color: ColorBlue, ThemeMode: ThemeAuto}
}

// Validate rejects colors and theme modes outside the known sets.
func (s Style) Validate() error {
	switch s.Color {
	case ColorRed, ColorPink, ColorBlue, ColorGreen, ColorYellow, ColorPurple, ColorOrange:
	default:
		return fmt.Errorf("unknown login page color %q", s.Color)
	}
	switch s.ThemeMode {
	case ThemeDark, ThemeAuto, ThemeLight:
	default:
		return fmt.Errorf("unknown login page theme mode %q", s.ThemeMode)
	}
	return nil
}
