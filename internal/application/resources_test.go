package application

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/bnema/propman-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceMutationTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutation Mutation
		wantType string
		method   string
		path     string
	}{
		{name: "create room", mutation: Rooms.Create(map[string]any{"roomNumber": "101"}), wantType: "CREATE_ROOM", method: http.MethodPost, path: "/rooms"},
		{name: "update resident", mutation: Residents.Update("4", map[string]any{"phone": "555"}), wantType: "UPDATE_RESIDENT", method: http.MethodPatch, path: "/residents/4"},
		{name: "delete complaint", mutation: Complaints.Delete("9"), wantType: "DELETE_COMPLAINT", method: http.MethodDelete, path: "/complaints/9"},
		{name: "create laundry booking", mutation: LaundryBookings.Create(nil), wantType: "CREATE_LAUNDRY_BOOKING", method: http.MethodPost, path: "/laundry"},
		{name: "update invoice", mutation: Invoices.Update("7", map[string]any{"paid": true}), wantType: "UPDATE_INVOICE", method: http.MethodPatch, path: "/invoices/7"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.wantType, tc.mutation.Type)
			assert.Equal(t, tc.method, tc.mutation.Request.Method)
			assert.Equal(t, tc.path, tc.mutation.Request.Path)
		})
	}
}

func TestResourceCreateAssignsPlaceholderID(t *testing.T) {
	mutation := Rooms.Create(map[string]any{"roomNumber": "102"})

	next, err := mutation.Apply(Rooms.ListKey(), json.RawMessage(`[{"id":1,"roomNumber":"101"}]`), true)
	require.NoError(t, err)

	var rooms []map[string]any
	require.NoError(t, json.Unmarshal(next, &rooms))
	require.Len(t, rooms, 2)
	assert.Equal(t, "102", rooms[1]["roomNumber"])
	assert.True(t, strings.HasPrefix(rooms[1]["id"].(string), "pending-"))

	body, ok := mutation.Request.Body.(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, body, "id")
}

func TestResourceApplyLeavesUnknownShapesUntouched(t *testing.T) {
	mutation := Rooms.Delete("1")

	next, err := mutation.Apply(Rooms.ListKey(), json.RawMessage(`{"items":[]}`), true)
	require.NoError(t, err)
	assert.Nil(t, next)

	next, err = mutation.Apply(Rooms.ListKey(), nil, false)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestResourceUpdateMergesItem(t *testing.T) {
	mutation := Residents.Update("4", map[string]any{"isActive": false})

	next, err := mutation.Apply(Residents.ItemKey("4"), json.RawMessage(`{"id":4,"isActive":true,"name":"Ana"}`), true)

	require.NoError(t, err)
	assert.JSONEq(t, `{"id":4,"isActive":false,"name":"Ana"}`, string(next))
}

func TestLookupResource(t *testing.T) {
	resource, ok := LookupResource("/laundry/3")
	require.True(t, ok)
	assert.Equal(t, LaundryBookings, resource)

	_, ok = LookupResource("buildings")
	assert.False(t, ok)
}

func TestParseFields(t *testing.T) {
	fields, err := ParseFields([]string{"roomNumber=101", "floor=2", "occupied=false", `note="12"`, "tags=[\"a\"]"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"roomNumber": float64(101),
		"floor":      float64(2),
		"occupied":   false,
		"note":       "12",
		"tags":       []any{"a"},
	}, fields)

	_, err = ParseFields([]string{"broken"})
	require.Error(t, err)
}

func TestResourceItemRequest(t *testing.T) {
	req := Complaints.ItemRequest("3")

	assert.Equal(t, domain.Request{Method: http.MethodGet, Path: "/complaints/3"}, req)
}
