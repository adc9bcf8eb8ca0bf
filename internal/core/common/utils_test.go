package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	type payload struct {
		DataType string `json:"data_type"`
	}

	tests := []struct {
		name     string
		response string
		want     string
		wantErr  bool
	}{
		{"plain", `{"data_type": "Customer data"}`, "Customer data", false},
		{"fenced", "```json\n{\"data_type\": \"Product data\"}\n```", "Product data", false},
		{"prose around", `Sure! {"data_type": "x"} Hope this helps.`, "x", false},
		{"no object", "just text", "", true},
		{"broken", `{"data_type": }`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON[payload](tt.response)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.DataType)
		})
	}
}
