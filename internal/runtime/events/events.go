// Package events defines the events published for player records and the
// mapper that derives them.
package events

import "github.com/drblury/playerflow/internal/runtime/records"

// Type is the event_type discriminator carried in every event body.
type Type string

const (
	TypePlayerRegistration Type = "player_registration"
	TypePlayerAchievements Type = "player_achievements"
)

// Event is the tagged union of everything the pipeline publishes.
type Event interface {
	Type() Type
}

// Player is a snapshot of a registered player.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Age      string `json:"age"`
	Country  string `json:"country"`
	Position string `json:"position"`
}

type Achievement struct {
	Year  string `json:"year"`
	Title string `json:"title"`
}

type PlayerRegistrationEvent struct {
	EventType Type   `json:"event_type"`
	Player    Player `json:"player"`
}

func (e PlayerRegistrationEvent) Type() Type { return e.EventType }

type PlayerAchievementsEvent struct {
	EventType    Type          `json:"event_type"`
	PlayerID     string        `json:"player_id"`
	Achievements []Achievement `json:"achievements"`
}

func (e PlayerAchievementsEvent) Type() Type { return e.EventType }

// RegistrationEvent snapshots the player fields of r.
func RegistrationEvent(r *records.PlayerRegistration) PlayerRegistrationEvent {
	return PlayerRegistrationEvent{
		EventType: TypePlayerRegistration,
		Player: Player{
			ID:       r.ID,
			Name:     r.Name,
			Age:      r.Age,
			Country:  r.Country,
			Position: r.Position,
		},
	}
}

// AchievementsEvent copies the achievements of r in input order.
func AchievementsEvent(r *records.PlayerRegistration) PlayerAchievementsEvent {
	var items []records.Achievement
	if r.Achievements != nil {
		items = r.Achievements.Items
	}

	achievements := make([]Achievement, 0, len(items))
	for _, a := range items {
		achievements = append(achievements, Achievement{Year: a.Year, Title: a.Title})
	}
	return PlayerAchievementsEvent{
		EventType:    TypePlayerAchievements,
		PlayerID:     r.ID,
		Achievements: achievements,
	}
}

// FromPlayerRegistration emits the registration event and, when the player
// has achievements, the achievements event after it.
func FromPlayerRegistration(r *records.PlayerRegistration) []Event {
	out := []Event{RegistrationEvent(r)}
	if r.Achievements.Len() > 0 {
		out = append(out, AchievementsEvent(r))
	}
	return out
}
