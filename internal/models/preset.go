package models

import (
	"strings"
	"unicode"
)

// Preset is a ready-made habit offered when creating a new one.
type Preset struct {
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
	Category string `json:"category"`
}

// PresetGroup is one heading of the preset catalog.
type PresetGroup struct {
	Category string
	Presets  []Preset
}

// PresetCatalog lists the built-in presets grouped by category, in display order.
var PresetCatalog = []PresetGroup{
	{
		Category: "Health & Fitness",
		Presets: []Preset{
			{Name: "Drink 8 glasses of water", Icon: "💧", Color: "#3B82F6"},
			{Name: "Walk 10,000 steps", Icon: "🚶", Color: "#10B981"},
			{Name: "Exercise 30 minutes", Icon: "🏋️", Color: "#F59E0B"},
			{Name: "Meditate 10 minutes", Icon: "🧘", Color: "#8B5CF6"},
		},
	},
	{
		Category: "Productivity",
		Presets: []Preset{
			{Name: "Read 20 pages", Icon: "📚", Color: "#6366F1"},
			{Name: "No social media before noon", Icon: "📱", Color: "#EF4444"},
			{Name: "Plan tomorrow's tasks", Icon: "📝", Color: "#F97316"},
		},
	},
	{
		Category: "Mindfulness",
		Presets: []Preset{
			{Name: "Gratitude journal", Icon: "🙏", Color: "#EC4899"},
			{Name: "Digital detox 1 hour", Icon: "🔕", Color: "#10B981"},
			{Name: "Deep breathing", Icon: "🌬️", Color: "#3B82F6"},
		},
	},
}

// Presets returns every preset with its Category filled in.
func Presets() []Preset {
	var out []Preset
	for _, g := range PresetCatalog {
		for _, p := range g.Presets {
			p.Category = g.Category
			out = append(out, p)
		}
	}
	return out
}

// Key is the command-line handle for a preset, e.g. "read-20-pages".
func (p Preset) Key() string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(p.Name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		if r != '\'' && r != ',' {
			dash = true
		}
	}
	return b.String()
}

// FindPreset looks a preset up by key or by name, ignoring case.
func FindPreset(ref string) (Preset, bool) {
	ref = strings.TrimSpace(ref)
	for _, p := range Presets() {
		if strings.EqualFold(p.Key(), ref) || strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}
	return Preset{}, false
}

// Habit returns an unsaved daily habit built from the preset, tagged with
// its category.
func (p Preset) Habit() Habit {
	return Habit{
		Name:      p.Name,
		Icon:      p.Icon,
		Color:     p.Color,
		Frequency: Daily(),
		Target:    1,
		Category:  []string{p.Category},
	}
}
