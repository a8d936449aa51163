package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type holder struct {
	D Duration `json:"d" yaml:"d"`
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"string", `{"d":"15m"}`, 15 * time.Minute, false},
		{"nanoseconds", `{"d":1000000000}`, time.Second, false},
		{"bad string", `{"d":"soon"}`, 0, true},
		{"bool", `{"d":true}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h holder
			err := json.Unmarshal([]byte(tt.in), &h)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.D.Duration)
		})
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	var h holder
	require.NoError(t, yaml.Unmarshal([]byte("d: 6h\n"), &h))
	assert.Equal(t, 6*time.Hour, h.D.Duration)

	require.NoError(t, yaml.Unmarshal([]byte("d: 2000\n"), &h))
	assert.Equal(t, 2000*time.Nanosecond, h.D.Duration)

	require.Error(t, yaml.Unmarshal([]byte("d: [1, 2]\n"), &h))
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(holder{D: Duration{90 * time.Second}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"1m30s"}`, string(b))
}
