package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_DisabledReturnsNoopTracer(t *testing.T) {
	p, err := New(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p)

	ctx, span := p.StartCommand(context.Background(), "storageserver.READ")
	require.NotNil(t, ctx)
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestRecordError_NilIsNoop(t *testing.T) {
	p, err := New(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	_, span := p.StartCommand(context.Background(), "nameserver.CREATE")
	defer span.End()

	require.NotPanics(t, func() {
		RecordError(span, nil)
		RecordError(span, errors.New("boom"))
	})
}
