package oasis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wippyai/oasis/errors"
)

func TestCheckerViolation(t *testing.T) {
	strict := &checker{strict: true, log: zap.NewNop()}
	err := strict.violation(errors.PhaseScan, 42, recText, "text %q", "100%")
	require.Error(t, err)
	assert.True(t, errors.IsConformance(err))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, `text "100%"`, e.Detail)
	assert.Equal(t, int64(42), e.Offset)

	lax := &checker{log: zap.NewNop()}
	assert.NoError(t, lax.violation(errors.PhaseScan, 42, recText, "text %q", "100%"))
}
