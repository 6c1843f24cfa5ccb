package loadaudit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/iota-freight/modules/freight/domain/aggregates/load"
)

type Operation string

const (
	OperationHold          Operation = "hold"
	OperationRelease       Operation = "release"
	OperationUploadPOD     Operation = "upload_pod"
	OperationConfirmSpot   Operation = "confirm_spot"
	OperationConvertToLane Operation = "convert_to_contract"
)

// Entry records one change to a load as an RFC 6902 patch from the previous
// snapshot to the next.
type Entry struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	LoadID         uuid.UUID
	ActorID        uuid.UUID
	Operation      Operation
	RequestID      string
	Patch          json.RawMessage
	CreatedAt      time.Time
}

func NewEntry(op Operation, actorID uuid.UUID, requestID string, before, after load.Snapshot) (Entry, error) {
	patch, err := jsondiff.Compare(before, after, jsondiff.Ignores("/updated_at"))
	if err != nil {
		return Entry{}, fmt.Errorf("diff load %s: %w", before.ID, err)
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal patch: %w", err)
	}
	return Entry{
		OrganizationID: after.OrganizationID,
		LoadID:         after.ID,
		ActorID:        actorID,
		Operation:      op,
		RequestID:      requestID,
		Patch:          raw,
	}, nil
}

// Empty reports whether the patch carries no operations.
func (e Entry) Empty() bool {
	return len(e.Patch) == 0 || string(e.Patch) == "null" || string(e.Patch) == "[]"
}

type Repository interface {
	Create(ctx context.Context, entry Entry) (Entry, error)
}
