package rows

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kakeibo/internal/core"
)

func TestLedgerCSVRoundTrip(t *testing.T) {
	ledger := core.Ledger{
		{Date: core.NewDate(2024, 1, 1), AccountName: "Bank X", AccountKind: core.KindChecking, Owner: "userA", Amount: 1000},
		{Date: core.NewDate(2024, 1, 2), AccountName: "Fund, Ltd", AccountKind: core.KindMutualFund, Owner: "joint", Amount: 0, Memo: "quoted \"memo\""},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteLedgerCSV(&buf, ledger))
	assert.True(t, strings.HasPrefix(buf.String(), "date,account_name,account_kind,owner,amount,memo\n"))

	got, err := ReadLedgerCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, ledger, got)
}

func TestDecodeLedgerEmptyTables(t *testing.T) {
	got, err := DecodeLedger(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = DecodeLedger([][]string{LedgerHeader})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeLedgerFindsColumnsByName(t *testing.T) {
	table := [][]string{
		{"Owner", "Amount", "Date", "Account_Name"},
		{"joint", "1,500", "2024/03/01", "Cash box"},
		{"", "", "", ""},
		{"userB", "20", "2024-3-2"},
	}

	got, err := DecodeLedger(table)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, core.Transaction{Date: core.NewDate(2024, 3, 1), AccountName: "Cash box", Owner: "joint", Amount: 1500}, got[0])
	assert.Equal(t, core.Owner("userB"), got[1].Owner)
	assert.Equal(t, "", got[1].AccountName)
}

func TestHiddenRowsSurviveSaveUnchanged(t *testing.T) {
	padded := []string{"2024-01-05", "BankB ", "checking ", "userB", "1000", "  note with padding "}
	stray := []string{"2024-01-06", "Cash", "cash", "userA ", "20", ""}
	table := [][]string{
		LedgerHeader,
		{"2024-01-04", "BankA", "checking", "userA", "500", ""},
		padded,
		stray,
	}

	full, err := DecodeLedger(table)
	require.NoError(t, err)

	allowed := core.DefaultHousehold().AllowedOwners("userA")
	visible := core.VisibleRows(full, allowed)
	require.Len(t, visible, 1)
	assert.Equal(t, "BankA", visible[0].AccountName)

	saved := EncodeLedger(core.Reconcile(full, allowed, core.EditRows(visible)))
	require.Len(t, saved, 4)
	assert.Contains(t, saved[1:], padded)
	assert.Contains(t, saved[1:], stray)
}

func TestDecodeLedgerRejectsMalformedRows(t *testing.T) {
	cases := []struct {
		name   string
		record []string
		column string
	}{
		{"bad date", []string{"yesterday", "A", "cash", "userA", "1"}, ColDate},
		{"empty date", []string{"", "A", "cash", "userA", "1"}, ColDate},
		{"bad amount", []string{"2024-01-01", "A", "cash", "userA", "lots"}, ColAmount},
		{"negative amount", []string{"2024-01-01", "A", "cash", "userA", "-5"}, ColAmount},
		{"amount out of range", []string{"2024-01-01", "A", "cash", "userA", "9223372036854775808"}, ColAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			table := [][]string{LedgerHeader, {"2024-01-01", "ok", "cash", "userA", "1"}, tc.record}
			got, err := DecodeLedger(table)
			assert.Nil(t, got)
			require.ErrorIs(t, err, core.ErrDataFormat)

			var dfe *core.DataFormatError
			require.ErrorAs(t, err, &dfe)
			assert.Equal(t, 3, dfe.Row)
			assert.Equal(t, tc.column, dfe.Column)
		})
	}
}

func TestDecodeLedgerMissingHeader(t *testing.T) {
	_, err := DecodeLedger([][]string{{"date", "account_name", "owner"}})
	require.ErrorIs(t, err, core.ErrDataFormat)
	assert.Contains(t, err.Error(), "amount")
}

func TestDecodeCredentialsKeepsSecretText(t *testing.T) {
	table := TextTable([][]any{
		{"username", "secret"},
		{"userA", "0000"},
		{"userB", float64(1234)},
		{"", "orphan"},
		{"userC"},
	})

	creds, err := DecodeCredentials(table)
	require.NoError(t, err)
	assert.Equal(t, []core.Credential{
		{Username: "userA", Secret: "0000"},
		{Username: "userB", Secret: "1234"},
		{Username: "userC", Secret: ""},
	}, creds)
	assert.Equal(t, map[string]string{"userA": "0000", "userB": "1234", "userC": ""}, CredentialMap(creds))
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "", CellText(nil))
	assert.Equal(t, "abc", CellText("abc"))
	assert.Equal(t, "1000000", CellText(float64(1e6)))
	assert.Equal(t, "0", CellText(float64(0)))
	assert.Equal(t, "12.5", CellText(12.5))
	assert.Equal(t, "42", CellText(42))
	assert.Equal(t, "true", CellText(true))
}

func TestReadCredentialsCSV(t *testing.T) {
	creds, err := ReadCredentialsCSV(strings.NewReader("username,secret\nuserA,0000\nuserB,pw\n"))
	require.NoError(t, err)
	assert.Len(t, creds, 2)
	assert.Equal(t, "0000", creds[0].Secret)
}
