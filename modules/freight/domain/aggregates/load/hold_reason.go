package load

import (
	"fmt"
	"strings"
)

type HoldReasonCode string

const (
	HoldReasonMissingPOD HoldReasonCode = "MISSING_POD"
	HoldReasonOther      HoldReasonCode = "OTHER"
)

// ClassifyHoldReason derives a code from a free-text note: any mention of
// "pod", in any case, means the hold waits on a proof of delivery.
func ClassifyHoldReason(note string) HoldReasonCode {
	if strings.Contains(strings.ToLower(note), "pod") {
		return HoldReasonMissingPOD
	}
	return HoldReasonOther
}

// ParseHoldReasonCode accepts an empty string as "derive from the note".
func ParseHoldReasonCode(raw string) (HoldReasonCode, error) {
	switch code := HoldReasonCode(strings.ToUpper(strings.TrimSpace(raw))); code {
	case "", HoldReasonMissingPOD, HoldReasonOther:
		return code, nil
	default:
		return "", fmt.Errorf("unknown hold reason code %q", raw)
	}
}
