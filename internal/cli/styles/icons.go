// Package styles provides reusable lipgloss-based TUI components.
package styles

// Nerd Font icons (requires a Nerd Font to display correctly)
const (
	IconGlobe     = "" //  web
	IconVersion   = "" //  tag
	IconGitBranch = "" //  git branch
	IconCalendar  = "" //  calendar
	IconGithub    = "" //  github
	IconHeart     = "" //  heart
	IconGo        = "" //  go gopher
	IconBell      = "" //  bell

	IconCheck   = "" // check
	IconX       = "" // x
	IconWarning = "" // warning
	IconPackage = "" // archive/package
	IconKey     = "" // key

	// Purge / storage
	IconTrash    = "" // trash
	IconConfig   = "" // config
	IconDatabase = "" // database
	IconCache    = "" // cache
	IconClock    = "" // clock

	// Checkboxes
	IconCheckboxEmpty   = "" // unchecked
	IconCheckboxChecked = "" // checked

	// UI
	IconCursor = "" // chevron-right
)
