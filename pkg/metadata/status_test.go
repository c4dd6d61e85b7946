package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStatus(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"pending", false},
		{"registered", false},
		{"expired", false},
		{"claimed", false},
		{"void", false},
		{"", true},
		{"active", true},
		{"Registered", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			status, err := NewStatus(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, Status(tt.value), status)
		})
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Warranty Registered", StatusRegistered.Label())
	assert.Equal(t, "Pending", StatusPending.Label())
	assert.Equal(t, "Void", StatusVoid.Label())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     Status
		to       Status
		override bool
		want     bool
	}{
		{"pending to registered", StatusPending, StatusRegistered, false, true},
		{"registered to claimed", StatusRegistered, StatusClaimed, false, true},
		{"registered to void", StatusRegistered, StatusVoid, false, true},
		{"registered to expired", StatusRegistered, StatusExpired, false, true},
		{"registered back to pending", StatusRegistered, StatusPending, false, false},
		{"registered back to pending with override", StatusRegistered, StatusPending, true, true},
		{"void back to pending", StatusVoid, StatusPending, false, false},
		{"claimed back to registered", StatusClaimed, StatusRegistered, false, false},
		{"expired back to registered", StatusExpired, StatusRegistered, false, false},
		{"void with override", StatusVoid, StatusRegistered, true, true},
		{"claimed with override", StatusClaimed, StatusPending, true, true},
		{"same status is not a transition", StatusRegistered, StatusRegistered, false, false},
		{"unknown target", StatusRegistered, Status("broken"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to, tt.override))
		})
	}
}
