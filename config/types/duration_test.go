package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshal(t *testing.T) {
	tcs := []struct {
		input          string
		expectedResult Duration
		expectedErr    bool
	}{
		{input: "10s", expectedResult: NewDuration(10 * time.Second)},
		{input: "1h", expectedResult: NewDuration(time.Hour)},
		{input: "300ms", expectedResult: NewDuration(300 * time.Millisecond)},
		{input: "abc", expectedErr: true},
	}

	for _, tc := range tcs {
		t.Run(tc.input, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tc.input))
			if tc.expectedErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expectedResult, d)
		})
	}
}

func TestDurationJSONSchema(t *testing.T) {
	schema := Duration{}.JSONSchema()
	require.Equal(t, "string", schema.Type)
}
