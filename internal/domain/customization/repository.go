package customization

import (
	"context"

	"github.com/google/uuid"
)

// RequestRepository defines the interface for customization request persistence
type RequestRepository interface {
	// FindByID returns nil, nil when the request does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*CustomizationRequest, error)

	// Save inserts or fully replaces a request
	Save(ctx context.Context, request *CustomizationRequest) error

	// SaveWithLock updates a request only if its persisted version still
	// matches request.Version, then increments the version
	SaveWithLock(ctx context.Context, request *CustomizationRequest) error
}
