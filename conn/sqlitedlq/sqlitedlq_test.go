package sqlitedlq_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowlinego/flowline/conn/sqlitedlq"
	"github.com/flowlinego/flowline/dlq"
)

func TestSinkPersistsEnvelope(t *testing.T) {
	sink, err := sqlitedlq.New(sqlitedlq.Options{Path: ":memory:"})
	require.NoError(t, err)
	defer sink.Close()

	env := dlq.NewEnvelope("node-a", map[string]any{"id": 1}, errors.New("boom"), 1)
	require.NoError(t, sink.Handle(context.Background(), env))
}

func TestSinkRejectsOnClosedDB(t *testing.T) {
	sink, err := sqlitedlq.New(sqlitedlq.Options{Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	env := dlq.NewEnvelope("node-a", 1, errors.New("boom"), 1)
	require.Error(t, sink.Handle(context.Background(), env))
}
