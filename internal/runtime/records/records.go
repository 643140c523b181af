// Package records holds the typed input records of a player batch and the
// parser that turns document nodes into them.
package records

import "encoding/xml"

// Record is one decoded child of a players document.
type Record interface {
	// RecordID identifies the record within its kind.
	RecordID() string
	// IsValid reports whether every required field is present.
	IsValid() bool
}

// TagPlayerRegistration is the element name of a player registration.
const TagPlayerRegistration = "player_registration"

// Achievement is a single entry of a player's achievement list.
type Achievement struct {
	Year  string `xml:"year,attr"`
	Title string `xml:",chardata"`
}

func (a Achievement) IsValid() bool {
	return a.Year != "" && a.Title != ""
}

// AchievementList is the <achievements> container. A nil list means the
// container was absent from the input.
type AchievementList struct {
	Items []Achievement `xml:"achievement"`
}

// Len is safe on a nil list.
func (l *AchievementList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

// PlayerRegistration announces a player and the achievements they bring.
type PlayerRegistration struct {
	XMLName      xml.Name         `xml:"player_registration"`
	ID           string           `xml:"id"`
	Name         string           `xml:"name"`
	Age          string           `xml:"age"`
	Country      string           `xml:"country"`
	Position     string           `xml:"position"`
	Achievements *AchievementList `xml:"achievements"`
}

// NewPlayerRegistration builds a registration with a present (possibly empty)
// achievement container.
func NewPlayerRegistration(id, name, age, country, position string, achievements ...Achievement) *PlayerRegistration {
	return &PlayerRegistration{
		ID:           id,
		Name:         name,
		Age:          age,
		Country:      country,
		Position:     position,
		Achievements: &AchievementList{Items: achievements},
	}
}

func (p *PlayerRegistration) RecordID() string {
	return p.ID
}

func (p *PlayerRegistration) IsValid() bool {
	if p.ID == "" || p.Name == "" || p.Age == "" || p.Country == "" || p.Position == "" {
		return false
	}
	if p.Achievements == nil {
		return false
	}
	for _, a := range p.Achievements.Items {
		if !a.IsValid() {
			return false
		}
	}
	return true
}
