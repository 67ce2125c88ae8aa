package tracer

import (
	"context"
	"testing"

	"ai-postgen-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestInitTracerDisabledIsNoop(t *testing.T) {
	shutdown := InitTracer(context.Background(), false, logger.NewNop())
	assert.NoError(t, shutdown(context.Background()))
}
