package event_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/event"
	"github.com/xraph/custody/id"
)

func TestHeaderPrefixes(t *testing.T) {
	tests := []struct {
		kind   event.Kind
		prefix id.Prefix
	}{
		{event.KindInitialized, id.PrefixInitialized},
		{event.KindPaymentReceived, id.PrefixPayment},
		{event.KindWithdrawn, id.PrefixWithdrawal},
		{event.KindOwnershipTransferred, id.PrefixOwnership},
		{event.KindRejected, id.PrefixRejection},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			h := event.NewHeader(tt.kind, address.DefaultProgramID, time.Now())
			if h.ID.Prefix() != tt.prefix {
				t.Errorf("prefix = %q, want %q", h.ID.Prefix(), tt.prefix)
			}
			if h.Kind != tt.kind {
				t.Errorf("kind = %q", h.Kind)
			}
		})
	}
}

func TestEventJSON(t *testing.T) {
	ev := event.Withdrawn{
		Header: event.NewHeader(event.KindWithdrawn, address.DefaultProgramID, time.Unix(100, 0)),
		Amount: 1_000_000_000,
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{`"kind":"custody.withdrawn"`, `"id":"wdl_`, `"display":"1"`, address.DefaultProgramID.String()} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON %s missing %s", s, want)
		}
	}

	var _ event.Event = ev
}
