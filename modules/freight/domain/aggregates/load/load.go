package load

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeSpot     Type = "SPOT"
	TypeContract Type = "CONTRACT"
	TypeUnmapped Type = "UNMAPPED"
)

func (t Type) Valid() bool {
	switch t {
	case TypeSpot, TypeContract, TypeUnmapped:
		return true
	}
	return false
}

// ReviewState is orthogonal to Type: a spot load may or may not be flagged.
type ReviewState string

const (
	ReviewNormal      ReviewState = "NORMAL"
	ReviewSpotFlagged ReviewState = "SPOT_FLAGGED"
)

var (
	ErrNotFound    = errors.New("load not found")
	ErrAlreadyHeld = errors.New("load is already on hold")
	ErrNotHeld     = errors.New("load is not on hold")
)

// Route identifies a recurring lane: the hauling contract route and trip.
type Route struct {
	HCR        string
	TripNumber string
}

func (r Route) Complete() bool {
	return strings.TrimSpace(r.HCR) != "" && strings.TrimSpace(r.TripNumber) != ""
}

// Snapshot is the flat, serializable form of a Load. Persistence hydrates
// from it and the audit trail diffs two of them.
type Snapshot struct {
	ID                   uuid.UUID      `json:"id"`
	OrganizationID       uuid.UUID      `json:"organization_id"`
	OrderNumber          string         `json:"order_number"`
	CustomerID           uuid.UUID      `json:"customer_id"`
	LoadType             Type           `json:"load_type"`
	ParsedHCR            string         `json:"parsed_hcr,omitempty"`
	ParsedTripNumber     string         `json:"parsed_trip_number,omitempty"`
	RequiresManualReview bool           `json:"requires_manual_review"`
	IsHeld               bool           `json:"is_held"`
	HeldReason           string         `json:"held_reason,omitempty"`
	HeldReasonCode       HoldReasonCode `json:"held_reason_code,omitempty"`
	HeldAt               *time.Time     `json:"held_at,omitempty"`
	HeldBy               *uuid.UUID     `json:"held_by,omitempty"`
	HasSignedPOD         bool           `json:"has_signed_pod"`
	PODStorageID         string         `json:"pod_storage_id,omitempty"`
	PODUploadedAt        *time.Time     `json:"pod_uploaded_at,omitempty"`
	ContractMiles        *float64       `json:"contract_miles,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// Load is an immutable value; transitions return a modified copy.
type Load struct {
	s Snapshot
}

// Hydrate wraps stored state. The route is kept exactly as stored.
func Hydrate(s Snapshot) Load {
	return Load{s: s}
}

func (l Load) ID() uuid.UUID                  { return l.s.ID }
func (l Load) OrganizationID() uuid.UUID      { return l.s.OrganizationID }
func (l Load) OrderNumber() string            { return l.s.OrderNumber }
func (l Load) CustomerID() uuid.UUID          { return l.s.CustomerID }
func (l Load) Type() Type                     { return l.s.LoadType }
func (l Load) RequiresManualReview() bool     { return l.s.RequiresManualReview }
func (l Load) IsHeld() bool                   { return l.s.IsHeld }
func (l Load) HeldReason() string             { return l.s.HeldReason }
func (l Load) HeldReasonCode() HoldReasonCode { return l.s.HeldReasonCode }
func (l Load) HeldAt() *time.Time             { return l.s.HeldAt }
func (l Load) HeldBy() *uuid.UUID             { return l.s.HeldBy }
func (l Load) HasSignedPOD() bool             { return l.s.HasSignedPOD }
func (l Load) PODStorageID() string           { return l.s.PODStorageID }
func (l Load) PODUploadedAt() *time.Time      { return l.s.PODUploadedAt }
func (l Load) ContractMiles() *float64        { return l.s.ContractMiles }
func (l Load) CreatedAt() time.Time           { return l.s.CreatedAt }
func (l Load) UpdatedAt() time.Time           { return l.s.UpdatedAt }
func (l Load) Snapshot() Snapshot             { return l.s }

func (l Load) Route() Route {
	return Route{HCR: l.s.ParsedHCR, TripNumber: l.s.ParsedTripNumber}
}

func (l Load) ReviewState() ReviewState {
	if l.s.RequiresManualReview {
		return ReviewSpotFlagged
	}
	return ReviewNormal
}

// Hold marks the load held. Payable detachment is the caller's concern.
func (l Load) Hold(code HoldReasonCode, note string, actor uuid.UUID, at time.Time) (Load, error) {
	if l.s.IsHeld {
		return l, ErrAlreadyHeld
	}
	if code == "" {
		code = ClassifyHoldReason(note)
	}
	l.s.IsHeld = true
	l.s.HeldReason = strings.TrimSpace(note)
	l.s.HeldReasonCode = code
	l.s.HeldAt = &at
	l.s.HeldBy = &actor
	l.s.UpdatedAt = at
	return l, nil
}

// Release clears every hold field. It never touches payables.
func (l Load) Release(at time.Time) (Load, error) {
	if !l.s.IsHeld {
		return l, ErrNotHeld
	}
	l.s.IsHeld = false
	l.s.HeldReason = ""
	l.s.HeldReasonCode = ""
	l.s.HeldAt = nil
	l.s.HeldBy = nil
	l.s.UpdatedAt = at
	return l, nil
}

func (l Load) AttachPOD(storageID string, at time.Time) Load {
	l.s.PODStorageID = strings.TrimSpace(storageID)
	l.s.PODUploadedAt = &at
	l.s.HasSignedPOD = true
	l.s.UpdatedAt = at
	return l
}

// AwaitingPOD reports whether a signed POD is what keeps the load held.
func (l Load) AwaitingPOD() bool {
	return l.s.IsHeld && l.s.HeldReasonCode == HoldReasonMissingPOD
}

func (l Load) ConfirmSpot(at time.Time) Load {
	l.s.RequiresManualReview = false
	l.s.UpdatedAt = at
	return l
}

func (l Load) PromoteToContract(at time.Time) Load {
	l.s.LoadType = TypeContract
	l.s.RequiresManualReview = false
	l.s.UpdatedAt = at
	return l
}
