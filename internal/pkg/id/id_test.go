package id

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsParseableULID(t *testing.T) {
	s := New()
	_, err := ulid.Parse(s)
	require.NoError(t, err)
	assert.NotEqual(t, s, New())
}
