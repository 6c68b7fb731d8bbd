package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pennywise/internal/core"
)

func sample() []core.Transaction {
	return []core.Transaction{
		{Kind: core.KindExpense, Category: "Food", Amount: core.Cents(12050), Description: `Dinner, "fancy"`, Date: core.NewDate(2024, 5, 10), Source: core.AccountWallet},
		{Kind: core.KindIncome, Category: "Salary", Amount: core.Cents(500000), Date: core.NewDate(2024, 5, 1), Destination: core.AccountBank},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample()))

	want := "Date,Category,Amount,Description,Source/Destination\n" +
		"2024-05-10,Food,120.5,\"Dinner, \"\"fancy\"\"\",wallet\n" +
		"2024-05-01,Salary,5000,\"\",bank"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "Date,Category,Amount,Description,Source/Destination", buf.String())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "expenses-2024-05.csv", FileName(core.KindExpense, "2024-05", FormatCSV))
	assert.Equal(t, "income-2024-05.csv", FileName(core.KindIncome, "2024-05", ""))
	assert.Equal(t, "income-2024-05.xlsx", FileName(core.KindIncome, "2024-05", FormatXLSX))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	f, err = ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sample()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "Food", rows[1][1])
	assert.Equal(t, "120.5", rows[1][2])
	assert.Equal(t, "wallet", rows[1][4])
}
