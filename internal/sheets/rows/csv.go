package rows

import (
	"encoding/csv"
	"fmt"
	"io"

	"kakeibo/internal/core"
)

// ReadLedgerCSV reads a ledger export. Rows may have any column order the header names.
func ReadLedgerCSV(r io.Reader) (core.Ledger, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	return DecodeLedger(records)
}

// WriteLedgerCSV writes the ledger with the standard header.
func WriteLedgerCSV(w io.Writer, l core.Ledger) error {
	cw := csv.NewWriter(w)
	for i, record := range EncodeLedger(l) {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCredentialsCSV reads a username,secret file.
func ReadCredentialsCSV(r io.Reader) ([]core.Credential, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading credentials CSV: %w", err)
	}
	return DecodeCredentials(records)
}
