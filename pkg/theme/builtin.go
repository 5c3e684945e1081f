package theme

// thRegisterBuiltins registers all built-in themes in the registry.
func thRegisterBuiltins() {
	for _, t := range []Theme{
		thDefaultTheme(),
		thNordTheme(),
		thGruvboxTheme(),
		thTokyoNightTheme(),
	} {
		thRegister(t)
	}
}

// thDefaultTheme returns the dark neutral theme with purple accent.
func thDefaultTheme() Theme {
	return Theme{
		Name:       "default",
		Foreground: "#d4d4d4",
		Dim:        "#6b6b6b",
		Accent:     "#7C3AED",

		Border:      "#3e3e3e",
		BorderFocus: "#7C3AED",
		Title:       "#d4d4d4",

		StatusOK:    "#4ec970",
		StatusWarn:  "#e5c07b",
		StatusError: "#e06c75",

		Up:   "#4ec970",
		Down: "#e06c75",

		Series:    []string{"#61afef", "#e5c07b", "#c678dd", "#56b6c2"},
		Selection: "#3b3054",
		Cursor:    "#f9e2af",

		HelpKey:  "#7C3AED",
		HelpDesc: "#6b6b6b",
	}
}

// thNordTheme returns the arctic Nord theme.
func thNordTheme() Theme {
	return Theme{
		Name:       "nord",
		Foreground: "#d8dee9",
		Dim:        "#4c566a",
		Accent:     "#88c0d0",

		Border:      "#3b4252",
		BorderFocus: "#88c0d0",
		Title:       "#eceff4",

		StatusOK:    "#a3be8c",
		StatusWarn:  "#ebcb8b",
		StatusError: "#bf616a",

		Up:   "#a3be8c",
		Down: "#bf616a",

		Series:    []string{"#81a1c1", "#ebcb8b", "#b48ead", "#8fbcbb"},
		Selection: "#434c5e",
		Cursor:    "#eceff4",

		HelpKey:  "#88c0d0",
		HelpDesc: "#4c566a",
	}
}

// thGruvboxTheme returns the warm retro Gruvbox theme.
func thGruvboxTheme() Theme {
	return Theme{
		Name:       "gruvbox",
		Foreground: "#ebdbb2",
		Dim:        "#928374",
		Accent:     "#fe8019",

		Border:      "#504945",
		BorderFocus: "#fe8019",
		Title:       "#fbf1c7",

		StatusOK:    "#b8bb26",
		StatusWarn:  "#fabd2f",
		StatusError: "#fb4934",

		Up:   "#b8bb26",
		Down: "#fb4934",

		Series:    []string{"#83a598", "#fabd2f", "#d3869b", "#8ec07c"},
		Selection: "#504945",
		Cursor:    "#fbf1c7",

		HelpKey:  "#fe8019",
		HelpDesc: "#928374",
	}
}

// thTokyoNightTheme returns the Tokyo Night theme.
func thTokyoNightTheme() Theme {
	return Theme{
		Name:       "tokyonight",
		Foreground: "#c0caf5",
		Dim:        "#565f89",
		Accent:     "#7aa2f7",

		Border:      "#292e42",
		BorderFocus: "#7aa2f7",
		Title:       "#c0caf5",

		StatusOK:    "#9ece6a",
		StatusWarn:  "#e0af68",
		StatusError: "#f7768e",

		Up:   "#9ece6a",
		Down: "#f7768e",

		Series:    []string{"#7dcfff", "#e0af68", "#bb9af7", "#73daca"},
		Selection: "#2e3c64",
		Cursor:    "#c0caf5",

		HelpKey:  "#7aa2f7",
		HelpDesc: "#565f89",
	}
}
