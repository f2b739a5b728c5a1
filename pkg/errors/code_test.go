package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCode(t *testing.T) {
	valid := []string{
		"catalog.no_such_object",
		"warehouse.mkdir_failed",
		"metadata.commit_failed",
		"api.rate_limit_exceeded",
	}
	for _, s := range valid {
		code, err := NewCode(s)
		assert.NoError(t, err, s)
		assert.Equal(t, s, code.String())
	}

	invalid := []string{
		"invalid",
		"catalog.",
		".no_such_object",
		"Catalog.no_such_object",
		"catalog.no-such-object",
		"catalog.no_such_object.",
		"catalog..no_such_object",
		"catalog.sub.name",
		"error.no_such_object",
		"catalog.interrupted",
	}
	for _, s := range invalid {
		_, err := NewCode(s)
		assert.Error(t, err, s)
	}
}

func TestMustNewCodePanics(t *testing.T) {
	assert.NotPanics(t, func() { MustNewCode("catalog.already_exists") })
	assert.Panics(t, func() { MustNewCode("nope") })
}

func TestCodeParts(t *testing.T) {
	code := MustNewCode("catalog.invalid_object")
	assert.Equal(t, "catalog", code.Package())
	assert.Equal(t, "invalid_object", code.Name())
	assert.True(t, code.IsValid())
	assert.True(t, code.Equals(MustNewCode("catalog.invalid_object")))
	assert.False(t, code.Equals(MustNewCode("catalog.invalid_operation")))
}
