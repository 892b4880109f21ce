package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Thresholds applied to every evaluation
	Policy Policy `json:"policy"`

	// Machine preselected for new tools
	DefaultMachineID string `json:"default_machine_id,omitempty"`

	// Application preferences
	RecentProjects []string `json:"recent_projects"`
	Theme          string   `json:"theme"`     // "light", "dark", "system"
	LogLevel       string   `json:"log_level"` // zap level name
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Policy:         DefaultPolicy(),
		RecentProjects: []string{},
		Theme:          "system",
		LogLevel:       "info",
	}
}

// maxRecentProjects bounds the recent project list shown in the File menu.
const maxRecentProjects = 10

// AddRecentProject moves path to the front of the recent list.
func (c *AppConfig) AddRecentProject(path string) {
	recent := []string{path}
	for _, p := range c.RecentProjects {
		if p != path {
			recent = append(recent, p)
		}
	}
	if len(recent) > maxRecentProjects {
		recent = recent[:maxRecentProjects]
	}
	c.RecentProjects = recent
}
