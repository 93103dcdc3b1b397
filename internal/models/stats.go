package models

import "time"

// EventStats counts registrations for one event.
type EventStats struct {
	EventID    int    `json:"event_id"`
	EventName  string `json:"event_name"`
	Registered int    `json:"registered"`
	Attended   int    `json:"attended"`
}

// DashboardStats aggregates the whole registration store for coordinators.
type DashboardStats struct {
	TotalRegistrations int            `json:"total_registrations"`
	TotalAttended      int            `json:"total_attended"`
	UniqueParticipants int            `json:"unique_participants"`
	TodayRegistrations int            `json:"today_registrations"`
	PerEvent           []EventStats   `json:"per_event"`
	PerDepartment      map[string]int `json:"per_department"`
	GeneratedAt        time.Time      `json:"generated_at"`
}

// Participant is one student with the number of events they registered for.
type Participant struct {
	UserID           string `json:"user_id"`
	RollNumber       string `json:"roll_number"`
	Name             string `json:"name"`
	Department       string `json:"department"`
	Year             int    `json:"year"`
	Mobile           string `json:"mobile"`
	EventsRegistered int    `json:"events_registered"`
}
