package visits

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONPayload(t *testing.T) {
	payload, err := ParseJSONPayload([]byte(`{"visitor_id":"v1","duration":42,"screen_width":"1024","language":null}`))
	require.NoError(t, err)

	assert.Equal(t, "v1", payload.String("visitor_id"))
	assert.Equal(t, 42, payload.Int("duration"))
	assert.Equal(t, 1024, payload.Int("screen_width"))
	assert.False(t, payload.Has("language"))
	assert.Equal(t, "", payload.String("language"))
	assert.Equal(t, 0, payload.Int("missing"))
}

func TestParseJSONPayloadEmptyBody(t *testing.T) {
	payload, err := ParseJSONPayload(nil)
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestParseJSONPayloadInvalid(t *testing.T) {
	_, err := ParseJSONPayload([]byte(`{"visitor_id":`))
	assert.Error(t, err)

	_, err = ParseJSONPayload([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestPayloadIntNonNumeric(t *testing.T) {
	payload := Payload{"duration": "soon", "screen_width": " 800 "}
	assert.Equal(t, 0, payload.Int("duration"))
	assert.Equal(t, 800, payload.Int("screen_width"))
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("disk full")

	storageErr := &StorageError{Op: "insert", Err: cause}
	assert.ErrorIs(t, storageErr, cause)
	assert.Equal(t, "storage insert: disk full", storageErr.Error())

	ioErr := &IOError{Op: "copy", Path: "/tmp/x.db", Err: cause}
	assert.ErrorIs(t, ioErr, cause)
	assert.Contains(t, ioErr.Error(), "/tmp/x.db")

	validation := NewValidationError("visitor_id", ErrMissingVisitorID)
	assert.True(t, IsValidation(validation))
	assert.False(t, IsValidation(storageErr))
	assert.ErrorIs(t, validation, ErrMissingVisitorID)
}
