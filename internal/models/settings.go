package models

// Settings is the singleton technician profile. It has no ID.
type Settings struct {
	TechnicianName string `json:"technicianName"`
	Company        string `json:"company"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`

	// JobTypes overrides the built-in catalogue. Nil means use JobTypes.
	JobTypes []string `json:"jobTypes"`

	// DefaultChecklist holds extra labels offered on every new job form.
	DefaultChecklist []string `json:"defaultChecklist"`
}

// DefaultSettings returns the settings used when nothing has been saved.
func DefaultSettings() Settings {
	return Settings{
		DefaultChecklist: []string{},
	}
}

// EffectiveJobTypes returns the configured job types, falling back to the
// built-in catalogue.
func (s Settings) EffectiveJobTypes() []string {
	if s.JobTypes == nil {
		return append([]string(nil), JobTypes...)
	}
	return s.JobTypes
}
