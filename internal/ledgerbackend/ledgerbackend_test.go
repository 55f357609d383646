package ledgerbackend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/salestracker/internal/config"
	"github.com/mamadbah2/salestracker/internal/repository/memory"
	"github.com/mamadbah2/salestracker/pkg/clients/ledger"
)

func TestOpen_Memory(t *testing.T) {
	l, err := Open(context.Background(), config.Config{Ledger: config.LedgerConfig{Backend: config.LedgerBackendMemory}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Ledger{}, l)
}

func TestOpen_Script(t *testing.T) {
	cfg := config.Config{Ledger: config.LedgerConfig{Backend: config.LedgerBackendScript, URL: "https://script.example.com/exec"}}

	l, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &ledger.APIClient{}, l)
}

func TestOpen_ScriptWithoutURL(t *testing.T) {
	l, err := Open(context.Background(), config.Config{Ledger: config.LedgerConfig{Backend: config.LedgerBackendScript}}, nil)
	assert.True(t, errors.Is(err, ledger.ErrMissingEndpoint))
	assert.Nil(t, l)
}

func TestOpen_Unknown(t *testing.T) {
	_, err := Open(context.Background(), config.Config{Ledger: config.LedgerConfig{Backend: "postgres"}}, nil)
	assert.Error(t, err)
}
