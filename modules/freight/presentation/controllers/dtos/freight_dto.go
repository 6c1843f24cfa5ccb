package dtos

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
)

type HoldLoadRequest struct {
	ReasonCode string `json:"reason_code" validate:"omitempty,max=32"`
	Reason     string `json:"reason" validate:"max=1000"`
}

type BulkHoldRequest struct {
	LoadIDs    []uuid.UUID `json:"load_ids" validate:"required,min=1,max=500"`
	ReasonCode string      `json:"reason_code" validate:"omitempty,max=32"`
	Reason     string      `json:"reason" validate:"max=1000"`
}

type BulkReleaseRequest struct {
	LoadIDs []uuid.UUID `json:"load_ids" validate:"required,min=1,max=500"`
}

// UploadPODRequest references a document that is already stored.
type UploadPODRequest struct {
	StorageID   string `json:"storage_id" validate:"required,max=512"`
	AutoRelease bool   `json:"auto_release"`
}

// UploadPODForm carries the non-file fields of a multipart POD upload.
type UploadPODForm struct {
	AutoRelease bool `form:"auto_release"`
}

type ConvertToContractRequest struct {
	ContractName    string           `json:"contract_name" validate:"max=200"`
	RateType        string           `json:"rate_type" validate:"max=64"`
	Rate            *decimal.Decimal `json:"rate"`
	ExpectedMatches *int64           `json:"expected_matches" validate:"omitempty,min=0"`
}

type MatchingSpotQuery struct {
	HCR  string `form:"hcr" validate:"required,max=64"`
	Trip string `form:"trip" validate:"required,max=64"`
}

type HeldLoadsQuery struct {
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=500"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
	Q      string `form:"q" validate:"max=100"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type LoadResponse struct {
	ID                   uuid.UUID  `json:"id"`
	OrderNumber          string     `json:"order_number"`
	CustomerID           uuid.UUID  `json:"customer_id"`
	LoadType             string     `json:"load_type"`
	ReviewState          string     `json:"review_state"`
	HCR                  string     `json:"hcr,omitempty"`
	TripNumber           string     `json:"trip_number,omitempty"`
	IsHeld               bool       `json:"is_held"`
	HeldReason           string     `json:"held_reason,omitempty"`
	HeldReasonCode       string     `json:"held_reason_code,omitempty"`
	HeldAt               *time.Time `json:"held_at,omitempty"`
	HeldBy               *uuid.UUID `json:"held_by,omitempty"`
	HasSignedPOD         bool       `json:"has_signed_pod"`
	PODStorageID         string     `json:"pod_storage_id,omitempty"`
	PODUploadedAt        *time.Time `json:"pod_uploaded_at,omitempty"`
	RequiresManualReview bool       `json:"requires_manual_review"`
}

type HeldLoadsResponse struct {
	Data   []LoadResponse `json:"data"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func NewLoadResponse(l load.Load) LoadResponse {
	route := l.Route()
	return LoadResponse{
		ID:                   l.ID(),
		OrderNumber:          l.OrderNumber(),
		CustomerID:           l.CustomerID(),
		LoadType:             string(l.Type()),
		ReviewState:          string(l.ReviewState()),
		HCR:                  route.HCR,
		TripNumber:           route.TripNumber,
		IsHeld:               l.IsHeld(),
		HeldReason:           l.HeldReason(),
		HeldReasonCode:       string(l.HeldReasonCode()),
		HeldAt:               l.HeldAt(),
		HeldBy:               l.HeldBy(),
		HasSignedPOD:         l.HasSignedPOD(),
		PODStorageID:         l.PODStorageID(),
		PODUploadedAt:        l.PODUploadedAt(),
		RequiresManualReview: l.RequiresManualReview(),
	}
}
