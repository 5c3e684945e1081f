package config

// DashboardPreset returns the chart keys shown by a named preset. Unknown
// names fall back to "full".
//
//	full:    stock, index, weather
//	markets: stock, index
//	weather: weather
func DashboardPreset(name string) []string {
	switch name {
	case "markets":
		return []string{"stock", "index"}
	case "weather":
		return []string{"weather"}
	default:
		return []string{"stock", "index", "weather"}
	}
}

// IsPreset reports whether name is a known preset.
func IsPreset(name string) bool {
	switch name {
	case "full", "markets", "weather":
		return true
	}
	return false
}
