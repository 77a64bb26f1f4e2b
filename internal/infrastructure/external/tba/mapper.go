// Package tba implements The Blue Alliance API client.
package tba

import (
	"time"

	"github.com/312Evan/frcstats/internal/domain/match"
	"github.com/312Evan/frcstats/internal/domain/team"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to Domain Entity transformations
// ══════════════════════════════════════════════════════════════════════════════

// Mapper handles transformation between TBA API DTOs and domain entities.
// This follows the Anti-Corruption Layer pattern from DDD, protecting the
// domain from external API changes.
type Mapper struct{}

// NewMapper creates a new Mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// RecordFromDTO converts a MatchDTO to a domain match record. Unix timestamps
// of zero map to the zero time, which downstream code reads as "unknown".
func (m *Mapper) RecordFromDTO(dto *MatchDTO) match.Record {
	return match.Record{
		Key:         dto.Key,
		EventKey:    dto.EventKey,
		MatchNumber: dto.MatchNumber,
		Red: match.Alliance{
			Score:    dto.Alliances.Red.Score,
			TeamKeys: dto.Alliances.Red.TeamKeys,
		},
		Blue: match.Alliance{
			Score:    dto.Alliances.Blue.Score,
			TeamKeys: dto.Alliances.Blue.TeamKeys,
		},
		ActualTime:    unixTime(dto.ActualTime),
		PredictedTime: unixTime(dto.PredictedTime),
		ScheduledTime: unixTime(dto.Time),
	}
}

// RecordsFromDTOs converts a slice of MatchDTOs to domain records.
func (m *Mapper) RecordsFromDTOs(dtos []MatchDTO) []match.Record {
	records := make([]match.Record, len(dtos))
	for i := range dtos {
		records[i] = m.RecordFromDTO(&dtos[i])
	}
	return records
}

// EventFromDTO converts an EventDTO to a domain event.
func (m *Mapper) EventFromDTO(dto *EventDTO) match.Event {
	return match.Event{
		Key:       dto.Key,
		Name:      dto.Name,
		City:      dto.City,
		StateProv: dto.StateProv,
	}
}

// EventsFromDTOs converts a slice of EventDTOs to domain events.
func (m *Mapper) EventsFromDTOs(dtos []EventDTO) []match.Event {
	events := make([]match.Event, len(dtos))
	for i := range dtos {
		events[i] = m.EventFromDTO(&dtos[i])
	}
	return events
}

// TeamFromDTO converts a TeamDTO to a domain team.
func (m *Mapper) TeamFromDTO(dto *TeamDTO) *team.Team {
	return &team.Team{
		Key:        dto.Key,
		Number:     dto.TeamNumber,
		Nickname:   dto.Nickname,
		City:       dto.City,
		StateProv:  dto.StateProv,
		Country:    dto.Country,
		RookieYear: dto.RookieYear,
	}
}

// TeamsFromDTOs converts a slice of TeamDTOs to domain teams.
func (m *Mapper) TeamsFromDTOs(dtos []TeamDTO) []team.Team {
	teams := make([]team.Team, len(dtos))
	for i := range dtos {
		teams[i] = *m.TeamFromDTO(&dtos[i])
	}
	return teams
}

// unixTime converts a Unix timestamp to time.Time, preserving zero as the
// zero time.
func unixTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
