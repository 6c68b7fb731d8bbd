package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pennywise/internal/auth"
	"pennywise/internal/config"
	"pennywise/internal/core"
	"pennywise/internal/export"
	"pennywise/internal/insights"
	"pennywise/internal/ledger"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"serve", "migrate", "export", "insights", "token", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "pennywise dev"), out.String())
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    core.Kind
		wantErr bool
	}{
		{"expense", core.KindExpense, false},
		{"expenses", core.KindExpense, false},
		{"income", core.KindIncome, false},
		{"salary", "", true},
	}
	for _, tt := range tests {
		got, err := parseKind(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, core.ErrInvalidKind, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestWriteExport_FiltersByMonthAndKind(t *testing.T) {
	st := ledger.State{
		Expenses: []core.Transaction{
			{ID: "1", Amount: core.Cents(1250), Category: "Food", Description: "lunch", Date: core.NewDate(2024, 5, 2), Kind: core.KindExpense, Source: core.AccountWallet},
			{ID: "2", Amount: core.Cents(900), Category: "Transport", Date: core.NewDate(2024, 4, 30), Kind: core.KindExpense, Source: core.AccountBank},
		},
		Income: []core.Transaction{
			{ID: "3", Amount: core.Cents(100000), Category: "Salary", Date: core.NewDate(2024, 5, 1), Kind: core.KindIncome, Destination: core.AccountBank},
		},
	}

	var buf bytes.Buffer
	n, err := writeExport(&buf, st, core.KindExpense, "2024-05", export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Category,Amount,Description,Source/Destination", lines[0])
	assert.Equal(t, `2024-05-02,Food,12.5,"lunch",wallet`, lines[1])

	buf.Reset()
	n, err = writeExport(&buf, st, core.KindIncome, "2024-05", export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, buf.String(), "Salary")
}

func TestPrintInsights(t *testing.T) {
	suggestions := []insights.Suggestion{
		{Type: insights.TypeWarning, Emoji: "⚠️", Message: "Food is over budget", Category: "Food"},
	}

	var text bytes.Buffer
	require.NoError(t, printInsights(&text, "2024-05", suggestions, false))
	assert.Equal(t, "⚠️ [warning] Food is over budget\n", text.String())

	var empty bytes.Buffer
	require.NoError(t, printInsights(&empty, "2024-05", nil, false))
	assert.Equal(t, "No suggestions for 2024-05\n", empty.String())

	var js bytes.Buffer
	require.NoError(t, printInsights(&js, "2024-05", suggestions, true))
	var decoded struct {
		Month       string                `json:"month"`
		Suggestions []insights.Suggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, "2024-05", decoded.Month)
	assert.Equal(t, suggestions, decoded.Suggestions)
}

func TestRunToken(t *testing.T) {
	v := auth.NewVerifier("0123456789abcdef", "pennywise")

	var out bytes.Buffer
	require.NoError(t, runToken(&out, v, true, "user-1", time.Hour))
	sub, err := v.Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)

	assert.Error(t, runToken(&out, v, false, "user-1", time.Hour))
	assert.Error(t, runToken(&out, v, true, "user-1", 0))
}

func TestRunMigrate_SQLite(t *testing.T) {
	cfg := &config.Config{
		DataBackend:  config.BackendSQLite,
		SQLiteDBPath: filepath.Join(t.TempDir(), "pennywise.db"),
	}

	var out bytes.Buffer
	require.NoError(t, runMigrate(&out, cfg, true))
	assert.Equal(t, "sqlite schema at version 0 (clean)\n", out.String())

	out.Reset()
	require.NoError(t, runMigrate(&out, cfg, false))
	assert.Equal(t, "sqlite schema at version 1 (clean)\n", out.String())
}

func TestRunMigrate_MemoryBackend(t *testing.T) {
	err := runMigrate(&bytes.Buffer{}, &config.Config{DataBackend: config.BackendMemory}, false)
	assert.ErrorIs(t, err, errNoSchema)
}
