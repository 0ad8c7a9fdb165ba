package utilx_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marcodd23/go-bulkcopy/pkg/utilx"
	"github.com/stretchr/testify/assert"
)

func TestGenerateUUID(t *testing.T) {
	first := utilx.GenerateUUID()
	second := utilx.GenerateUUID()

	assert.NotEqual(t, uuid.Nil, first)
	assert.NotEqual(t, first, second)
	assert.Equal(t, uuid.Version(4), first.Version())
}
