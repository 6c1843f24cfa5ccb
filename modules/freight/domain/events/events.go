package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicLoadHeld          = "freight.load.held"
	TopicLoadReleased      = "freight.load.released"
	TopicLoadPODUploaded   = "freight.load.pod_uploaded"
	TopicLoadSpotConfirmed = "freight.load.spot_confirmed"
	TopicLanePromoted      = "freight.lane.promoted"
	EventVersionV1         = 1
)

// Envelope fields shared by every freight event.
type Meta struct {
	EventVersion   int       `json:"event_version"`
	RequestID      string    `json:"request_id,omitempty"`
	OrganizationID uuid.UUID `json:"organization_id"`
	ActorID        uuid.UUID `json:"actor_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewMeta(organizationID, actorID uuid.UUID, requestID string, at time.Time) Meta {
	return Meta{
		EventVersion:   EventVersionV1,
		RequestID:      requestID,
		OrganizationID: organizationID,
		ActorID:        actorID,
		OccurredAt:     at,
	}
}

// LoadHeldEvent lists the payables pulled out of their settlement batches so
// the settlement generator can pick them up again after release.
type LoadHeldEvent struct {
	Meta
	LoadID             uuid.UUID   `json:"load_id"`
	ReasonCode         string      `json:"reason_code"`
	Reason             string      `json:"reason,omitempty"`
	DetachedPayableIDs []uuid.UUID `json:"detached_payable_ids"`
	DetachedTotals     []string    `json:"detached_totals,omitempty"`
}

type LoadReleasedEvent struct {
	Meta
	LoadID      uuid.UUID `json:"load_id"`
	AutoRelease bool      `json:"auto_release"`
}

type PODUploadedEvent struct {
	Meta
	LoadID      uuid.UUID `json:"load_id"`
	StorageID   string    `json:"storage_id"`
	WasReleased bool      `json:"was_released"`
}

type SpotConfirmedEvent struct {
	Meta
	LoadID uuid.UUID `json:"load_id"`
}

type LanePromotedEvent struct {
	Meta
	LaneID         uuid.UUID   `json:"lane_id"`
	LaneName       string      `json:"lane_name"`
	LaneCreated    bool        `json:"lane_created"`
	HCR            string      `json:"hcr"`
	TripNumber     string      `json:"trip_number"`
	SourceLoadID   uuid.UUID   `json:"source_load_id"`
	ConvertedLoads []uuid.UUID `json:"converted_loads"`
}
