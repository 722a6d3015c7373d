package bea

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"kind only", &Error{Kind: KindInvalidJSON}, "invalid json"},
		{"key and path", &Error{Kind: KindKeyMissing, Key: "ParameterName", Path: "BEAAPI.Results.Parameter[0]"},
			`key missing "ParameterName" at BEAAPI.Results.Parameter[0]`},
		{"code and msg", &Error{Kind: KindAPI, Code: "3", Msg: "bad dataset"}, "api error (code 3): bad dataset"},
		{"wrapped", &Error{Kind: KindIO, Key: "/tmp/x", Err: os.ErrNotExist}, `io "/tmp/x": file does not exist`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "not a bool", KindNotBool.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestIsKind_ThroughWrapping(t *testing.T) {
	err := IOError("cache: read", "/data/datasets.json", os.ErrPermission)
	wrapped := eris.Wrap(err, "check datasets")

	assert.True(t, IsKind(wrapped, KindIO))
	assert.False(t, IsKind(wrapped, KindEnv))
	assert.Equal(t, KindIO, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, os.ErrPermission)

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.False(t, IsKind(nil, KindIO))
}

func TestIsKind_NestedError(t *testing.T) {
	inner := IOError("cache: read", "/data/datasets.bin", os.ErrNotExist)
	outer := SerializationError("cache: decode", inner)
	wrapped := eris.Wrap(outer, "check datasets")

	assert.True(t, IsKind(wrapped, KindSerialization))
	assert.True(t, IsKind(wrapped, KindIO))
	assert.False(t, IsKind(wrapped, KindEnv))
	assert.Equal(t, KindSerialization, KindOf(wrapped))
}

func TestKindNotFloat_Reserved(t *testing.T) {
	assert.Equal(t, "not a float", KindNotFloat.String())

	// An unparsable DataValue is kept as text, not reported as a shape error.
	body := []byte(`{"BEAAPI":{"Request":{"RequestParam":[]},"Results":{"Data":[{"TimePeriod":"2022","DataValue":"(D)"}]}}}`)
	resp, err := ParseData(body)
	require.NoError(t, err)
	require.Len(t, resp.Results.Data, 1)
	assert.Nil(t, resp.Results.Data[0].Value)
	assert.Equal(t, "(D)", resp.Results.Data[0].DataValue)
}

func TestConstructors(t *testing.T) {
	err := EnvError("BEA_DATA")
	assert.True(t, IsKind(err, KindEnv))
	assert.Contains(t, err.Error(), "BEA_DATA")

	err = SerializationError("cache: encode", context.Canceled)
	assert.True(t, IsKind(err, KindSerialization))
	assert.ErrorIs(t, err, context.Canceled)

	err = DatasetMissingError("find", "MNE")
	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, KindDatasetMissing, e.Kind)
	assert.Equal(t, "MNE", e.Key)
}
