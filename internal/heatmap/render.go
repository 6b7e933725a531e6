package heatmap

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitchain/internal/constants"
)

// Palette holds the five intensity colors, lightest first.
var Palette = [constants.HeatmapMaxIntensity + 1]lipgloss.Color{
	"#ebedf0", "#9be9a8", "#40c463", "#30a14e", "#216e39",
}

const block = "■"

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	dayLabels  = [constants.DaysPerWeek]string{"Sun", "", "Tue", "", "Thu", "", "Sat"}
)

func cellStyle(color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(color)
}

// Render draws the aggregate grid with the intensity palette.
func Render(g Grid) string {
	return render(g, func(c Cell) lipgloss.Color { return Palette[c.Intensity] })
}

// RenderHabit draws a binary grid, completed days in the habit's color.
func RenderHabit(g Grid, color string) string {
	on := lipgloss.Color(color)
	return render(g, func(c Cell) lipgloss.Color {
		if c.Completed {
			return on
		}
		return Palette[0]
	})
}

func render(g Grid, colorOf func(Cell) lipgloss.Color) string {
	var b strings.Builder
	b.WriteString("    ")
	b.WriteString(monthHeader(g))
	b.WriteByte('\n')

	for row := 0; row < constants.DaysPerWeek; row++ {
		b.WriteString(labelStyle.Render(padLabel(dayLabels[row])))
		for col := 0; col < constants.HeatmapWeeks; col++ {
			c := g.At(col, row)
			if c.Future {
				b.WriteString("  ")
				continue
			}
			b.WriteString(cellStyle(colorOf(c)).Render(block))
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}

	b.WriteString(Legend())
	return b.String()
}

// monthHeader labels each column whose week starts a new month. Every
// column is two characters wide.
func monthHeader(g Grid) string {
	line := []rune(strings.Repeat(" ", constants.HeatmapWeeks*2))
	lastEnd := -1
	prevMonth := -1
	for col := 0; col < constants.HeatmapWeeks; col++ {
		m := int(g.At(col, 0).Day.Month())
		if m == prevMonth {
			continue
		}
		prevMonth = m
		label := []rune(g.At(col, 0).Day.Format("Jan"))
		pos := col * 2
		if pos <= lastEnd || pos+len(label) > len(line) {
			continue
		}
		copy(line[pos:], label)
		lastEnd = pos + len(label)
	}
	return labelStyle.Render(strings.TrimRight(string(line), " "))
}

func padLabel(s string) string {
	return s + strings.Repeat(" ", 4-len(s))
}

// Legend renders the "Less ... More" color key.
func Legend() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Less "))
	for _, c := range Palette {
		b.WriteString(cellStyle(c).Render(block))
		b.WriteByte(' ')
	}
	b.WriteString(labelStyle.Render("More"))
	return b.String()
}
