package keycase

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		snake string
		camel string
	}{
		{"membership_end", "membershipEnd"},
		{"is_assigned", "isAssigned"},
		{"id", "id"},
		{"total_students", "totalStudents"},
		{"days_before_expiration", "daysBeforeExpiration"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.camel, CamelKey(tc.snake), tc.snake)
		assert.Equal(t, tc.snake, SnakeKey(tc.camel), tc.camel)
	}
	// only lowercase letters fold
	assert.Equal(t, "seat_1", CamelKey("seat_1"))
}

func TestRoundTripNested(t *testing.T) {
	raw := `{
		"students": [
			{"id": "s1", "membership_end": "2026-03-31", "shift_id": null,
			 "tags": ["keep_me", {"inner_key": 1}]}
		],
		"total_students": 1
	}`
	var snake interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &snake))

	camel := ToCamel(snake)
	students := camel.(map[string]interface{})["students"].([]interface{})
	first := students[0].(map[string]interface{})
	assert.Contains(t, first, "membershipEnd")
	assert.Contains(t, first, "shiftId")
	tags := first["tags"].([]interface{})
	assert.Equal(t, "keep_me", tags[0])
	assert.Contains(t, tags[1], "innerKey")

	if diff := cmp.Diff(snake, ToSnake(camel)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCamelSnakeCamelIsIdentity(t *testing.T) {
	camel := map[string]interface{}{
		"membershipEnd": "2026-03-31",
		"userID":        "u1",
		"seats": []interface{}{
			map[string]interface{}{"seatNumber": "7", "isAssigned": true},
		},
		"plain": []interface{}{1.0, "x", nil},
	}
	back := ToCamel(ToSnake(camel))
	if diff := cmp.Diff(interface{}(camel), back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "user_i_d", SnakeKey("userID"))
}
