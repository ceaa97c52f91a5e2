package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncSummaryMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		summary SyncSummary
		want    string
	}{
		{name: "empty", summary: SyncSummary{}, want: "Nothing to sync"},
		{name: "single success", summary: SyncSummary{Succeeded: 1}, want: "Synced 1 action"},
		{name: "successes", summary: SyncSummary{Succeeded: 3}, want: "Synced 3 actions"},
		{name: "failures only", summary: SyncSummary{Failed: 2}, want: "2 actions failed, will retry"},
		{name: "mixed", summary: SyncSummary{Succeeded: 1, Failed: 1}, want: "Synced 1 action; 1 action failed, will retry"},
		{name: "exhausted", summary: SyncSummary{Exhausted: []PendingAction{{ID: "a"}}}, want: "1 action dropped after too many attempts"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.summary.Message())
		})
	}
}

func TestPendingActionRequestAndClone(t *testing.T) {
	t.Parallel()

	action := PendingAction{
		ID:       "a-1",
		Type:     "CREATE_ROOM",
		Endpoint: "/rooms",
		Method:   MethodPost,
		Payload:  []byte(`{"roomNumber":"101"}`),
	}

	req := action.Request()
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/rooms", req.Path)
	assert.Equal(t, action.Payload, req.Body)

	clone := action.Clone()
	clone.Payload[0] = 'x'
	assert.Equal(t, byte('{'), action.Payload[0])

	assert.Nil(t, PendingAction{Method: MethodDelete, Endpoint: "/rooms/1"}.Request().Body)
}
