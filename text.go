package main

var (
	SiteName = "voidowl"

	Role = "Software Developer"

	HeadlinePrefix = "Building"

	HeadlineTexts = []string{
		"products",
		"experiences",
		"interfaces",
		"solutions",
		"ideas",
	}

	// One background per headline text, matched by index.
	HeadlineColors = []string{
		"#6366f1", // indigo
		"#8b5cf6", // violet
		"#ec4899", // pink
		"#f97316", // orange
		"#10b981", // emerald
	}

	Intro = `I help companies design and develop intuitive software that solves real problems.
	Currently focused on web applications and design systems.`

	WorkTitle = "Projects that I'm proud of"

	WorkContent = "Coming soon..."

	ContactTitle = "Let's work together"

	ContactEmail = "hello@example.com"
)

type MenuItem struct {
	Label string
	Href  string
}

var MenuItems = []MenuItem{
	{Label: "Work", Href: "#work"},
	{Label: "About", Href: "#about"},
	{Label: "Contact", Href: "#contact"},
}
