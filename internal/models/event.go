package models

// Event is a static catalog entry. It is reference data and never mutated at runtime.
type Event struct {
	ID               int     `yaml:"id" json:"id"`
	Name             string  `yaml:"name" json:"name"`
	Category         string  `yaml:"category" json:"category"`
	Description      string  `yaml:"description" json:"description,omitempty"`
	Date             string  `yaml:"date" json:"date"`
	Time             string  `yaml:"time" json:"time"`
	Venue            string  `yaml:"venue" json:"venue"`
	TeamSize         string  `yaml:"team_size" json:"team_size"`
	PrizePool        string  `yaml:"prize_pool" json:"prize_pool"`
	RegistrationOpen bool    `yaml:"registration_open" json:"registration_open"`
	SpecialNote      *string `yaml:"special_note" json:"special_note,omitempty"`
}
