//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// lightTheme follows the report's palette.
type lightTheme struct{}

func (d *lightTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.RGBA{245, 245, 245, 255}
	case theme.ColorNameForeground:
		return color.RGBA{51, 51, 51, 255}
	case theme.ColorNamePrimary:
		return color.RGBA{102, 126, 234, 255}
	case theme.ColorNameSuccess:
		return color.RGBA{76, 175, 80, 255}
	}
	return theme.DefaultTheme().Color(name, theme.VariantLight)
}

func (d *lightTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (d *lightTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (d *lightTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNameText {
		return 15
	}
	return theme.DefaultTheme().Size(name)
}
