package render

import (
	"math"
	"strconv"
)

// Neutral is the background used when there is no score and for error panels.
const Neutral = "#909399"

type band struct {
	upper float64
	emoji string
	label string
	color string
}

// Inclusive upper bounds, lower is cleaner.
var bands = []band{
	{10, "⚪", "极佳", "#4A90D9"},
	{30, "🟢", "良好", "#67C23A"},
	{50, "🟡", "一般", "#E6A23C"},
	{70, "🟠", "较差", "#F56C6C"},
	{90, "🔴", "很差", Neutral},
	{math.Inf(1), "⚫", "极差", Neutral},
}

func bandOf(v *float64) *band {
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	for i := range bands {
		if *v <= bands[i].upper {
			return &bands[i]
		}
	}
	return nil
}

// Emoji returns the band emoji for a percentage, ❓ when unknown.
func Emoji(v *float64) string {
	if b := bandOf(v); b != nil {
		return b.emoji
	}
	return "❓"
}

// Label returns the band label for a score, 未知 when unknown.
func Label(v *float64) string {
	if b := bandOf(v); b != nil {
		return b.label
	}
	return "未知"
}

// Color returns the background color for a score.
func Color(v *float64) string {
	if b := bandOf(v); b != nil {
		return b.color
	}
	return Neutral
}

// maxColor colors by the worse of two percentages, treating missing as 0.
func maxColor(a, b *float64) string {
	m := 0.0
	for _, v := range []*float64{a, b} {
		if v != nil && *v > m {
			m = *v
		}
	}
	return Color(&m)
}

// percent formats a value the way the tiles print it: "12.5%", or "N/A".
func percent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return number(*v) + "%"
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
