package chat

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTurnRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		request TurnRequest
		wantErr string
	}{
		{
			name:    "valid request",
			request: TurnRequest{GameStateID: uuid.New(), Action: "look around"},
		},
		{
			name:    "empty action",
			request: TurnRequest{GameStateID: uuid.New()},
			wantErr: "action cannot be empty",
		},
		{
			name:    "missing gamestate id",
			request: TurnRequest{Action: "look around"},
			wantErr: "gamestate_id is required",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.request.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tc.wantErr)
			}
		})
	}
}
