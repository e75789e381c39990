package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/activity"
	"github.com/printmarket/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormActivityLogRepository implements activity.Repository using GORM
type GormActivityLogRepository struct {
	db *gorm.DB
}

// NewGormActivityLogRepository creates a new GormActivityLogRepository
func NewGormActivityLogRepository(db *gorm.DB) *GormActivityLogRepository {
	return &GormActivityLogRepository{db: db}
}

// Create appends an activity entry
func (r *GormActivityLogRepository) Create(ctx context.Context, entry *activity.Log) error {
	return r.db.WithContext(ctx).Create(models.ActivityLogModelFromDomain(entry)).Error
}

// FindByEntity lists the entries of one entity, oldest first
func (r *GormActivityLogRepository) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]activity.Log, error) {
	var rows []models.ActivityLogModel
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]activity.Log, len(rows))
	for i := range rows {
		logs[i] = rows[i].ToDomain()
	}
	return logs, nil
}
