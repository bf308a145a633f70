package draft_test

import (
	"testing"

	"github.com/kbukum/draftkit/draft"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from    draft.State
		ev      draft.Event
		want    draft.State
		wantErr bool
	}{
		{draft.StateUninitialized, draft.EventLoad, draft.StateLoaded, false},
		{draft.StateUninitialized, draft.EventClear, draft.StateLoaded, false},
		{draft.StateUninitialized, draft.EventChange, draft.StateUninitialized, true},
		{draft.StateUninitialized, draft.EventFlush, draft.StateUninitialized, true},
		{draft.StateLoaded, draft.EventChange, draft.StateDirtyPending, false},
		{draft.StateLoaded, draft.EventLoad, draft.StateLoaded, true},
		{draft.StateLoaded, draft.EventClear, draft.StateLoaded, false},
		{draft.StateDirtyPending, draft.EventChange, draft.StateDirtyPending, false},
		{draft.StateDirtyPending, draft.EventFlush, draft.StateLoaded, false},
		{draft.StateDirtyPending, draft.EventClear, draft.StateLoaded, false},
	}
	for _, tc := range tests {
		t.Run(tc.from.String()+"/"+string(tc.ev), func(t *testing.T) {
			got, err := draft.Transition(tc.from, tc.ev)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}
