package analysis

var tipsByLevel = map[StressLevel][]string{
	Stable: {
		"Keep up your positive mindset by practicing daily gratitude",
		"Share your successful coping strategies with others who might benefit",
		"Set new personal growth goals to maintain your momentum",
	},
	MildStress: {
		"Try a 5-minute mindfulness meditation before starting your day",
		"Take regular breaks during work to stretch and breathe deeply",
		"Create a calming evening routine to improve sleep quality",
	},
	HighStress: {
		"Consider talking to a trusted friend or family member about your feelings",
		"Break down overwhelming tasks into smaller, manageable steps",
		"Schedule dedicated time for activities that bring you joy and relaxation",
	},
	Critical: {
		"Reach out to a mental health professional for support and guidance",
		"Practice grounding techniques when feeling overwhelmed (5-4-3-2-1 method)",
		"Establish a daily routine to create stability and structure",
	},
}

// TipsFor returns a copy of the level's tips; unknown levels get the Stable tips.
func TipsFor(level StressLevel) []string {
	tips, ok := tipsByLevel[level]
	if !ok {
		tips = tipsByLevel[Stable]
	}
	out := make([]string, len(tips))
	copy(out, tips)
	return out
}
