package style

import (
	"fmt"

	"github.com/fatih/color"
)

var GainEmoji = "📈"
var LossEmoji = "📉"

// ChangeColor is the terminal color of a percentage change.
func ChangeColor(percentage float64) *color.Color {
	switch {
	case percentage > 0:
		return color.New(color.FgGreen)
	case percentage < 0:
		return color.New(color.FgRed)
	}
	return color.New(color.Reset)
}

// ChangeHexColor is the chart color of a percentage change.
func ChangeHexColor(percentage float64) string {
	if percentage < 0 {
		return RedColor
	}
	return GreenColor
}

func ChangeSignString(percentage float64) string {
	if percentage > 0 {
		return fmt.Sprintf("+%.2f%%", percentage)
	}
	return fmt.Sprintf("%.2f%%", percentage)
}

func ChangeEmoji(percentage float64) string {
	switch {
	case percentage > 0:
		return GainEmoji
	case percentage < 0:
		return LossEmoji
	}
	return ""
}
