package settlement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSettlement_AllowsDetach(t *testing.T) {
	cases := map[Status]bool{
		StatusDraft:    true,
		StatusPending:  false,
		StatusApproved: false,
		StatusPaid:     false,
		StatusVoid:     false,
	}
	for status, want := range cases {
		require.Equal(t, want, Settlement{Status: status}.AllowsDetach(), status)
	}
}
