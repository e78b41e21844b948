package quality

// Grade is the letter rendering of a final score.
type Grade string

// gradeThresholds is ordered best-first; the first threshold the score
// clears wins.
var gradeThresholds = []struct {
	min   int
	grade Grade
}{
	{95, "A+"},
	{90, "A"},
	{85, "A-"},
	{80, "B+"},
	{75, "B"},
	{70, "B-"},
	{65, "C+"},
	{60, "C"},
	{55, "C-"},
	{50, "D"},
}

// GradeFor maps a 0-100 final score onto the letter scale.
func GradeFor(score int) Grade {
	for _, threshold := range gradeThresholds {
		if score >= threshold.min {
			return threshold.grade
		}
	}
	return "F"
}
