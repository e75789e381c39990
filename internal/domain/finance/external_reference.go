package finance

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnparseableReference is returned for references that match no known format
var ErrUnparseableReference = errors.New("payment: unparseable external reference")

// ReferenceKind identifies which records an external reference points at
type ReferenceKind string

const (
	ReferenceKindOrder         ReferenceKind = "order"
	ReferenceKindOrderBatch    ReferenceKind = "orders"
	ReferenceKindCustomization ReferenceKind = "customization"
)

const (
	orderPrefix         = "order_"
	orderBatchPrefix    = "orders_"
	customizationPrefix = "customization-"
)

// ExternalReference is the decoded form of the external_id / reference_id
// sent to the gateway when an invoice is created
type ExternalReference struct {
	Kind      ReferenceKind
	IDs       []uuid.UUID
	Timestamp time.Time
}

// NewOrderReference builds order_{id}_{unixMillis}
func NewOrderReference(orderID uuid.UUID, at time.Time) string {
	return orderPrefix + orderID.String() + "_" + millis(at)
}

// NewOrderBatchReference builds orders_{id1}_{id2}_..._{unixMillis}
func NewOrderBatchReference(orderIDs []uuid.UUID, at time.Time) string {
	var b strings.Builder
	b.WriteString(orderBatchPrefix)
	for _, id := range orderIDs {
		b.WriteString(id.String())
		b.WriteByte('_')
	}
	b.WriteString(millis(at))
	return b.String()
}

// NewCustomizationReference builds customization-{id}-{unixMillis}
func NewCustomizationReference(requestID uuid.UUID, at time.Time) string {
	return customizationPrefix + requestID.String() + "-" + millis(at)
}

// ParseExternalReference decodes any of the three reference formats.
// The batch prefix is checked before the single-order prefix.
func ParseExternalReference(ref string) (*ExternalReference, error) {
	switch {
	case strings.HasPrefix(ref, orderBatchPrefix):
		return parseUnderscored(ReferenceKindOrderBatch, strings.TrimPrefix(ref, orderBatchPrefix), -1)
	case strings.HasPrefix(ref, orderPrefix):
		return parseUnderscored(ReferenceKindOrder, strings.TrimPrefix(ref, orderPrefix), 1)
	case strings.HasPrefix(ref, customizationPrefix):
		body := strings.TrimPrefix(ref, customizationPrefix)
		cut := strings.LastIndexByte(body, '-')
		if cut <= 0 {
			return nil, ErrUnparseableReference
		}
		id, err := uuid.Parse(body[:cut])
		if err != nil {
			return nil, ErrUnparseableReference
		}
		ts, err := parseMillis(body[cut+1:])
		if err != nil {
			return nil, err
		}
		return &ExternalReference{Kind: ReferenceKindCustomization, IDs: []uuid.UUID{id}, Timestamp: ts}, nil
	}
	return nil, ErrUnparseableReference
}

// parseUnderscored splits id_id_..._ts; want is the exact id count or -1 for one or more
func parseUnderscored(kind ReferenceKind, body string, want int) (*ExternalReference, error) {
	parts := strings.Split(body, "_")
	if len(parts) < 2 {
		return nil, ErrUnparseableReference
	}
	idParts := parts[:len(parts)-1]
	if want > 0 && len(idParts) != want {
		return nil, ErrUnparseableReference
	}

	ids := make([]uuid.UUID, 0, len(idParts))
	seen := make(map[uuid.UUID]struct{}, len(idParts))
	for _, p := range idParts {
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, ErrUnparseableReference
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	ts, err := parseMillis(parts[len(parts)-1])
	if err != nil {
		return nil, err
	}
	return &ExternalReference{Kind: kind, IDs: ids, Timestamp: ts}, nil
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, ErrUnparseableReference
	}
	return time.UnixMilli(ms), nil
}
