package domain

import "strings"

type Category string

const (
	CategoryDevelopment   Category = "development"
	CategoryBrowser       Category = "browser"
	CategoryCommunication Category = "communication"
	CategoryMedia         Category = "media"
	CategoryOffice        Category = "office"
	CategoryGaming        Category = "gaming"
	CategorySystem        Category = "system"
	CategoryUtilities     Category = "utilities"
	CategoryUnknown       Category = "unknown"
)

var allCategories = []Category{
	CategoryDevelopment,
	CategoryBrowser,
	CategoryCommunication,
	CategoryMedia,
	CategoryOffice,
	CategoryGaming,
	CategorySystem,
	CategoryUtilities,
	CategoryUnknown,
}

// knownApplications lists process names per category. Windows executables
// and their Linux/macOS process names share a category.
var knownApplications = map[Category][]string{
	CategoryDevelopment: {
		"code.exe", "devenv.exe", "sublime_text.exe", "atom.exe", "notepad++.exe", "pycharm64.exe", "intellij.exe",
		"code", "sublime_text", "atom", "pycharm", "idea", "goland", "nvim", "vim", "emacs",
	},
	CategoryBrowser: {
		"chrome.exe", "firefox.exe", "msedge.exe", "opera.exe", "safari.exe", "brave.exe",
		"chrome", "chromium", "firefox", "msedge", "opera", "safari", "brave",
	},
	CategoryCommunication: {
		"teams.exe", "slack.exe", "discord.exe", "zoom.exe", "skype.exe", "whatsapp.exe",
		"teams", "slack", "discord", "zoom", "skype", "signal-desktop", "thunderbird",
	},
	CategoryMedia: {
		"vlc.exe", "spotify.exe", "itunes.exe", "photoshop.exe", "premiere.exe", "gimp.exe",
		"vlc", "spotify", "gimp", "mpv", "obs",
	},
	CategoryOffice: {
		"winword.exe", "excel.exe", "powerpoint.exe", "outlook.exe", "onenote.exe",
		"soffice", "libreoffice", "evince", "okular",
	},
	CategoryGaming: {
		"steam.exe", "epicgameslauncher.exe", "origin.exe", "battle.net.exe", "roblox.exe",
		"steam", "lutris",
	},
	CategorySystem: {
		"explorer.exe", "taskmgr.exe", "cmd.exe", "powershell.exe", "services.exe",
		"nautilus", "dolphin", "gnome-terminal-server", "konsole", "alacritty", "kitty", "xterm",
	},
	CategoryUtilities: {
		"calculator.exe", "notepad.exe", "mspaint.exe", "snipping.exe", "winrar.exe",
		"gnome-calculator", "gedit", "flameshot", "file-roller",
	},
}

var categoryTable = buildCategoryTable()

func buildCategoryTable() map[string]Category {
	table := make(map[string]Category)
	for category, apps := range knownApplications {
		for _, app := range apps {
			table[app] = category
		}
	}
	return table
}

// Categorize maps an application identifier to its category by
// case-insensitive exact match. Unlisted identifiers are CategoryUnknown.
func Categorize(application string) Category {
	if category, ok := categoryTable[strings.ToLower(application)]; ok {
		return category
	}
	return CategoryUnknown
}

// ParseCategory accepts a stored category tag, falling back to unknown.
func ParseCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if c.Valid() {
		return c
	}
	return CategoryUnknown
}

func AllCategories() []Category {
	return append([]Category(nil), allCategories...)
}

func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) Title() string {
	if c == "" {
		return ""
	}
	s := string(c)
	return strings.ToUpper(s[:1]) + s[1:]
}

var productivityScores = map[Category]int{
	CategoryDevelopment:   9,
	CategoryOffice:        8,
	CategoryUtilities:     7,
	CategoryCommunication: 6,
	CategorySystem:        6,
	CategoryBrowser:       5,
	CategoryUnknown:       5,
	CategoryMedia:         4,
	CategoryGaming:        2,
}

func (c Category) ProductivityScore() int {
	if score, ok := productivityScores[c]; ok {
		return score
	}
	return productivityScores[CategoryUnknown]
}

// Productive reports whether time in c counts toward the productivity
// percentage.
func (c Category) Productive() bool {
	switch c {
	case CategoryDevelopment, CategoryOffice, CategoryUtilities:
		return true
	}
	return false
}
