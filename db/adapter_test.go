package db

import (
	"testing"

	"github.com/kasuganosora/mathquest/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_UnknownMode(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Mode: "embedded_xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestOpen_SQLiteMemory(t *testing.T) {
	gdb, err := Open(config.DatabaseConfig{Mode: ModeSQLite, SQLitePath: "file::memory:"})
	require.NoError(t, err)

	var one int
	require.NoError(t, gdb.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestOpen_MySQLRejectsMalformedDSN(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Mode: ModeMySQL, MySQLDSN: "not a dsn"})
	assert.Error(t, err)
}
