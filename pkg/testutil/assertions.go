package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertErrorKind checks that err matches kind through errors.Is and, when
// msg is not empty, mentions it.
func AssertErrorKind(t *testing.T, err, kind error, msg string) {
	t.Helper()
	if !assert.Error(t, err) {
		return
	}
	assert.True(t, errors.Is(err, kind), "expected %v to wrap %v", err, kind)
	if msg != "" {
		assert.Contains(t, err.Error(), msg)
	}
}
