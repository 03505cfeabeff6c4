package humanize

var units = []struct {
	limit int64
	div   float64
	name  string
}{
	{1024, 1, "B"},
	{1024 * 1024, 1024, "KB"},
	{1024 * 1024 * 1024, 1024 * 1024, "MB"},
}

// Size renders a byte count into a value and unit suitable for
// %.2f%s formatting.
func Size(i int64) (float64, string) {
	for _, u := range units {
		if i < u.limit {
			return float64(i) / u.div, u.name
		}
	}

	return float64(i) / (1024 * 1024 * 1024), "GB"
}
