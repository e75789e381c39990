package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/activity"
)

// ActivityLogModel is one append-only activity entry.
type ActivityLogModel struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ActorID    *uuid.UUID     `gorm:"type:uuid;index"`
	EntityType string         `gorm:"type:varchar(40);not null;index:idx_activity_logs_entity,priority:1"`
	EntityID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_activity_logs_entity,priority:2"`
	Action     string         `gorm:"type:varchar(60);not null"`
	Details    map[string]any `gorm:"type:jsonb;serializer:json"`
	CreatedAt  time.Time      `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ActivityLogModel) TableName() string {
	return "activity_logs"
}

// ToDomain converts the persistence model to a domain Log.
func (m *ActivityLogModel) ToDomain() activity.Log {
	return activity.Log{
		ID:         m.ID,
		ActorID:    m.ActorID,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Action:     m.Action,
		Details:    m.Details,
		CreatedAt:  m.CreatedAt,
	}
}

// ActivityLogModelFromDomain creates a persistence model from a domain Log.
func ActivityLogModelFromDomain(l *activity.Log) *ActivityLogModel {
	return &ActivityLogModel{
		ID:         l.ID,
		ActorID:    l.ActorID,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Action:     l.Action,
		Details:    l.Details,
		CreatedAt:  l.CreatedAt,
	}
}
