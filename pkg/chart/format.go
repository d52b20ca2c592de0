package chart

import (
	"fmt"

	"github.com/leekchan/accounting"

	"github.com/c9s/chartdesk/pkg/types"
)

var priceFormatter = accounting.DefaultAccounting("$", 2)

// FormatValue formats an axis or annotation value in the display unit.
func FormatValue(v float64, unit types.DisplayUnit) string {
	if unit == types.DisplayUnitPercentage {
		return accounting.FormatNumberFloat64(v, 2, ",", ".") + "%"
	}

	return priceFormatter.FormatMoneyFloat64(v)
}

// FormatChange formats a measured change with an explicit sign, e.g. "+10.00%".
func FormatChange(percentage float64) string {
	sign := "+"
	if percentage < 0 {
		sign = "-"
		percentage = -percentage
	}
	return fmt.Sprintf("%s%s%%", sign, accounting.FormatNumberFloat64(percentage, 2, ",", "."))
}
