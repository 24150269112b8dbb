// Package insurance resolves payer eligibility for a booking.
//
// The classification rule is a documented placeholder contract, not real
// adjudication: the member id suffix selects the result. It is preserved
// as-is for compatibility with the consuming presentation layer.
package insurance

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/telecare-platform/pkg/logging"
)

var insuranceTracer = otel.Tracer("telecare.internal.insurance")

// Status is the eligibility classification of a booking's insurance input.
type Status string

const (
	StatusNotSubmitted    Status = "not_submitted"
	StatusPending         Status = "pending"
	StatusInNetwork       Status = "in_network"
	StatusRequiresPreauth Status = "requires_preauth"
	StatusOutOfNetwork    Status = "out_of_network"
)

// Terminal reports whether the status is a final classification.
func (s Status) Terminal() bool {
	switch s {
	case StatusInNetwork, StatusRequiresPreauth, StatusOutOfNetwork:
		return true
	}
	return false
}

// ErrInvalidInput is returned before any network call when the payer name
// or member id is empty.
var ErrInvalidInput = errors.New("insurance: payer name and member id are required")

// Result is the outcome of an eligibility resolution.
type Result struct {
	Status     Status `json:"status"`
	CopayCents int64  `json:"copay_cents"`
}

// NotSubmitted is the result applied when a caller never submits
// insurance; pricing treats it as full self-pay.
func NotSubmitted() Result {
	return Result{Status: StatusNotSubmitted}
}

// Resolver determines coverage for a payer/member pair. Implementations
// may take network time; callers pass a context with a deadline.
type Resolver interface {
	Resolve(ctx context.Context, payerName, memberID string) (Result, error)
}

// MarkerResolver classifies by member-id suffix with a simulated network
// delay. It stands in for a real clearinghouse integration behind the
// same contract.
type MarkerResolver struct {
	latency    time.Duration
	copayCents int64
	logger     *logging.Logger
}

// NewMarkerResolver creates the suffix-rule resolver. copayCents is the
// fixed in-network copay.
func NewMarkerResolver(latency time.Duration, copayCents int64, logger *logging.Logger) *MarkerResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &MarkerResolver{latency: latency, copayCents: copayCents, logger: logger}
}

// Resolve validates the input, waits the simulated latency, then applies
// the suffix rule: "...OUT" is out of network, "...AUTH" requires
// pre-authorization, anything else is in network with the fixed copay.
func (r *MarkerResolver) Resolve(ctx context.Context, payerName, memberID string) (Result, error) {
	ctx, span := insuranceTracer.Start(ctx, "insurance.resolve")
	defer span.End()
	span.SetAttributes(attribute.String("insurance.payer", payerName))

	if strings.TrimSpace(payerName) == "" || strings.TrimSpace(memberID) == "" {
		return Result{}, ErrInvalidInput
	}

	if r.latency > 0 {
		timer := time.NewTimer(r.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			span.RecordError(ctx.Err())
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}

	normalized := strings.ToUpper(strings.TrimSpace(memberID))
	var result Result
	switch {
	case strings.HasSuffix(normalized, "OUT"):
		result = Result{Status: StatusOutOfNetwork}
	case strings.HasSuffix(normalized, "AUTH"):
		result = Result{Status: StatusRequiresPreauth}
	default:
		result = Result{Status: StatusInNetwork, CopayCents: r.copayCents}
	}

	span.SetAttributes(attribute.String("insurance.status", string(result.Status)))
	r.logger.Info("eligibility resolved", "payer", payerName, "status", result.Status)
	return result, nil
}
