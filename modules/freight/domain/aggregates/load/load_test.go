package load

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newSpotLoad() Load {
	return Hydrate(Snapshot{
		ID:                   uuid.New(),
		OrganizationID:       uuid.New(),
		OrderNumber:          "ORD-1001",
		LoadType:             TypeSpot,
		ParsedHCR:            "12345",
		ParsedTripNumber:     "7",
		RequiresManualReview: true,
	})
}

func TestClassifyHoldReason(t *testing.T) {
	cases := map[string]HoldReasonCode{
		"Waiting on POD":          HoldReasonMissingPOD,
		"missing pod from driver": HoldReasonMissingPOD,
		"signed Pod pending":      HoldReasonMissingPOD,
		"tripod damaged":          HoldReasonMissingPOD,
		"rate dispute":            HoldReasonOther,
		"":                        HoldReasonOther,
	}
	for note, want := range cases {
		require.Equal(t, want, ClassifyHoldReason(note), note)
	}
}

func TestParseHoldReasonCode(t *testing.T) {
	code, err := ParseHoldReasonCode(" missing_pod ")
	require.NoError(t, err)
	require.Equal(t, HoldReasonMissingPOD, code)

	code, err = ParseHoldReasonCode("")
	require.NoError(t, err)
	require.Equal(t, HoldReasonCode(""), code)

	_, err = ParseHoldReasonCode("LATE")
	require.Error(t, err)
}

func TestLoad_HoldAndRelease(t *testing.T) {
	l := newSpotLoad()
	actor := uuid.New()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	held, err := l.Hold("", "awaiting POD", actor, at)
	require.NoError(t, err)
	require.True(t, held.IsHeld())
	require.Equal(t, HoldReasonMissingPOD, held.HeldReasonCode())
	require.Equal(t, "awaiting POD", held.HeldReason())
	require.Equal(t, at, *held.HeldAt())
	require.Equal(t, actor, *held.HeldBy())
	require.True(t, held.AwaitingPOD())
	require.False(t, l.IsHeld(), "original value is unchanged")

	_, err = held.Hold(HoldReasonOther, "again", actor, at)
	require.ErrorIs(t, err, ErrAlreadyHeld)

	released, err := held.Release(at.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, released.IsHeld())
	require.Empty(t, released.HeldReason())
	require.Empty(t, released.HeldReasonCode())
	require.Nil(t, released.HeldAt())
	require.Nil(t, released.HeldBy())

	_, err = released.Release(at)
	require.ErrorIs(t, err, ErrNotHeld)
}

func TestLoad_ExplicitCodeWinsOverNote(t *testing.T) {
	held, err := newSpotLoad().Hold(HoldReasonOther, "POD is fine, rate dispute", uuid.New(), time.Now())
	require.NoError(t, err)
	require.Equal(t, HoldReasonOther, held.HeldReasonCode())
	require.False(t, held.AwaitingPOD())
}

func TestLoad_AttachPOD(t *testing.T) {
	at := time.Now()
	l := newSpotLoad().AttachPOD(" doc-1 ", at)
	require.True(t, l.HasSignedPOD())
	require.Equal(t, "doc-1", l.PODStorageID())
	require.Equal(t, at, *l.PODUploadedAt())
	require.False(t, l.AwaitingPOD())
}

func TestLoad_ReviewTransitions(t *testing.T) {
	l := newSpotLoad()
	require.Equal(t, ReviewSpotFlagged, l.ReviewState())
	require.Equal(t, Route{HCR: "12345", TripNumber: "7"}, l.Route())
	require.True(t, l.Route().Complete())

	confirmed := l.ConfirmSpot(time.Now())
	require.Equal(t, ReviewNormal, confirmed.ReviewState())
	require.Equal(t, TypeSpot, confirmed.Type())

	promoted := l.PromoteToContract(time.Now())
	require.Equal(t, ReviewNormal, promoted.ReviewState())
	require.Equal(t, TypeContract, promoted.Type())
}

func TestRoute_Complete(t *testing.T) {
	require.False(t, Route{HCR: "1"}.Complete())
	require.False(t, Route{TripNumber: "1"}.Complete())
	require.False(t, Route{HCR: " ", TripNumber: "1"}.Complete())
	require.True(t, TypeUnmapped.Valid())
	require.False(t, Type("FREIGHT").Valid())
}
