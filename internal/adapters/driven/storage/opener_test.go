package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/neuroconv/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/neuroconv/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/neuroconv/internal/core/domain"
)

func TestOpener_InMemory(t *testing.T) {
	target, err := NewOpener().Open(context.Background(), domain.TargetDescriptor{Mode: domain.ModeInMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.Target{}, target)
	assert.NoError(t, target.Abort())
}

func TestOpener_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.nwb.db")

	target, err := NewOpener().Open(context.Background(), domain.TargetDescriptor{Path: path, Mode: domain.ModeCreate})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Target{}, target)
	assert.NoError(t, target.Abort())
}

func TestOpener_InvalidDescriptor(t *testing.T) {
	_, err := NewOpener().Open(context.Background(), domain.TargetDescriptor{Mode: domain.ModeAppend})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
