package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/printmarket/backend/internal/domain/activity"
	"github.com/printmarket/backend/internal/domain/customization"
	"github.com/printmarket/backend/internal/domain/finance"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/domain/trade"
)

func conflict(what string) error {
	return shared.NewDomainError(shared.CodeConcurrentModification, "The "+what+" has been modified by another transaction")
}

// MemoryOrderRepository is an in-memory trade.OrderRepository with the same
// version-checked write semantics as the database repository. Stored orders
// are copied on every read and write.
type MemoryOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]trade.Order

	// SaveErr, when set, is returned by the next SaveWithLock calls and consumed
	SaveErr []error
	// FailSaves makes every SaveWithLock of the keyed order fail
	FailSaves map[uuid.UUID]error
	// BeforeSave runs inside SaveWithLock before the version check
	BeforeSave func(order *trade.Order)
	Saves      int
}

// NewMemoryOrderRepository creates a repository seeded with orders
func NewMemoryOrderRepository(orders ...*trade.Order) *MemoryOrderRepository {
	r := &MemoryOrderRepository{orders: make(map[uuid.UUID]trade.Order)}
	for _, o := range orders {
		r.orders[o.ID] = copyOrder(o)
	}
	return r
}

func copyOrder(o *trade.Order) trade.Order {
	cp := *o
	cp.Items = slices.Clone(o.Items)
	cp.ClearDomainEvents()
	return cp
}

// FindByID returns a copy of the stored order
func (r *MemoryOrderRepository) FindByID(_ context.Context, id uuid.UUID) (*trade.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := copyOrder(&o)
	return &cp, nil
}

// FindByIDs returns copies of the stored orders among ids
func (r *MemoryOrderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*trade.Order, error) {
	out := make([]*trade.Order, 0, len(ids))
	for _, id := range ids {
		o, _ := r.FindByID(ctx, id)
		if o != nil {
			out = append(out, o)
		}
	}
	return out, nil
}

// Save stores a copy of order
func (r *MemoryOrderRepository) Save(_ context.Context, order *trade.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = copyOrder(order)
	return nil
}

// SaveWithLock stores order only when its version matches the stored one
func (r *MemoryOrderRepository) SaveWithLock(_ context.Context, order *trade.Order) error {
	if r.BeforeSave != nil {
		r.BeforeSave(order)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.SaveErr) > 0 {
		err := r.SaveErr[0]
		r.SaveErr = r.SaveErr[1:]
		if err != nil {
			return err
		}
	}
	if err := r.FailSaves[order.ID]; err != nil {
		return err
	}
	stored, ok := r.orders[order.ID]
	if !ok || stored.Version != order.Version {
		return conflict("order")
	}
	order.Version++
	r.orders[order.ID] = copyOrder(order)
	r.Saves++
	return nil
}

// Get returns a copy of the stored order
func (r *MemoryOrderRepository) Get(id uuid.UUID) trade.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.orders[id]
	return copyOrder(&o)
}

// SetFailSave makes saves of one order fail with err, or succeed again when err is nil
func (r *MemoryOrderRepository) SetFailSave(id uuid.UUID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailSaves == nil {
		r.FailSaves = make(map[uuid.UUID]error)
	}
	r.FailSaves[id] = err
}

// MemoryRequestRepository is an in-memory customization.RequestRepository
type MemoryRequestRepository struct {
	mu       sync.Mutex
	requests map[uuid.UUID]customization.CustomizationRequest

	SaveErr    []error
	BeforeSave func(request *customization.CustomizationRequest)
	Saves      int
}

// NewMemoryRequestRepository creates a repository seeded with requests
func NewMemoryRequestRepository(requests ...*customization.CustomizationRequest) *MemoryRequestRepository {
	r := &MemoryRequestRepository{requests: make(map[uuid.UUID]customization.CustomizationRequest)}
	for _, req := range requests {
		r.requests[req.ID] = CopyRequest(req)
	}
	return r
}

// CopyRequest deep-copies a request, dropping pending domain events
func CopyRequest(req *customization.CustomizationRequest) customization.CustomizationRequest {
	cp := *req
	cp.ClearDomainEvents()
	if req.PrintingShopID != nil {
		id := *req.PrintingShopID
		cp.PrintingShopID = &id
	}
	if req.Pricing != nil {
		p := *req.Pricing
		cp.Pricing = &p
	}
	if req.Payment != nil {
		p := *req.Payment
		p.Milestones = slices.Clone(req.Payment.Milestones)
		p.Payments = slices.Clone(req.Payment.Payments)
		cp.Payment = &p
	}
	return cp
}

// FindByID returns a copy of the stored request
func (r *MemoryRequestRepository) FindByID(_ context.Context, id uuid.UUID) (*customization.CustomizationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	cp := CopyRequest(&req)
	return &cp, nil
}

// Save stores a copy of request
func (r *MemoryRequestRepository) Save(_ context.Context, request *customization.CustomizationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[request.ID] = CopyRequest(request)
	return nil
}

// SaveWithLock stores request only when its version matches the stored one
func (r *MemoryRequestRepository) SaveWithLock(_ context.Context, request *customization.CustomizationRequest) error {
	if r.BeforeSave != nil {
		r.BeforeSave(request)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.SaveErr) > 0 {
		err := r.SaveErr[0]
		r.SaveErr = r.SaveErr[1:]
		if err != nil {
			return err
		}
	}
	stored, ok := r.requests[request.ID]
	if !ok || stored.Version != request.Version {
		return conflict("customization request")
	}
	request.Version++
	r.requests[request.ID] = CopyRequest(request)
	r.Saves++
	return nil
}

// Get returns a copy of the stored request
func (r *MemoryRequestRepository) Get(id uuid.UUID) customization.CustomizationRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	req := r.requests[id]
	return CopyRequest(&req)
}

// MemoryPaymentReferenceRepository is an in-memory finance.PaymentReferenceRepository
type MemoryPaymentReferenceRepository struct {
	mu   sync.Mutex
	refs []finance.PaymentReference
	Err  error
}

// NewMemoryPaymentReferenceRepository creates an empty index
func NewMemoryPaymentReferenceRepository() *MemoryPaymentReferenceRepository {
	return &MemoryPaymentReferenceRepository{}
}

// SaveAll appends rows that are not yet indexed
func (r *MemoryPaymentReferenceRepository) SaveAll(_ context.Context, refs []finance.PaymentReference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, ref := range refs {
		exists := slices.ContainsFunc(r.refs, func(existing finance.PaymentReference) bool {
			return existing.GatewayPaymentID == ref.GatewayPaymentID && existing.OwnerID == ref.OwnerID
		})
		if !exists {
			r.refs = append(r.refs, ref)
		}
	}
	return nil
}

// FindByGatewayPaymentID returns every row for a gateway payment
func (r *MemoryPaymentReferenceRepository) FindByGatewayPaymentID(_ context.Context, id string) ([]finance.PaymentReference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []finance.PaymentReference
	for _, ref := range r.refs {
		if ref.GatewayPaymentID == id {
			out = append(out, ref)
		}
	}
	return out, nil
}

// All returns every indexed row
func (r *MemoryPaymentReferenceRepository) All() []finance.PaymentReference {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.refs)
}

// MemoryActivityRepository is an in-memory activity.Repository
type MemoryActivityRepository struct {
	mu      sync.Mutex
	entries []activity.Log
	Err     error
}

// NewMemoryActivityRepository creates an empty activity log
func NewMemoryActivityRepository() *MemoryActivityRepository {
	return &MemoryActivityRepository{}
}

// Create appends an entry
func (r *MemoryActivityRepository) Create(_ context.Context, entry *activity.Log) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.entries = append(r.entries, *entry)
	return nil
}

// FindByEntity returns entries for one entity
func (r *MemoryActivityRepository) FindByEntity(_ context.Context, entityType string, entityID uuid.UUID) ([]activity.Log, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []activity.Log
	for _, e := range r.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Actions returns the recorded actions in order
func (r *MemoryActivityRepository) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}
