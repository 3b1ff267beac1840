package portfolio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// DecodeLedger decodes records from a stream of JSONL data.
//
// Malformed or invalid rows do not fail the decoding, they are reported by
// Ledger.Skipped. Only read errors are returned.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	ledger := NewLedger()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var records []Record
	seen := make(map[uuid.UUID]bool)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := bytes.TrimSpace(scanner.Bytes())
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}

		var rec Record
		if err := json.Unmarshal(lineBytes, &rec); err != nil {
			ledger.skipped = append(ledger.skipped, RowError{Line: line, Row: string(lineBytes), Err: err})
			continue
		}
		if err := rec.Validate(); err != nil {
			ledger.skipped = append(ledger.skipped, RowError{Line: line, Row: string(lineBytes), Err: err})
			continue
		}
		if rec.ID != uuid.Nil {
			if seen[rec.ID] {
				ledger.skipped = append(ledger.skipped, RowError{Line: line, Row: string(lineBytes), Err: fmt.Errorf("duplicate id %s", rec.ID)})
				continue
			}
			seen[rec.ID] = true
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}

	ledger.Append(records...)
	return ledger, nil
}

// EncodeRecord marshals a single record to JSON and writes it to the writer,
// followed by a newline, in JSONL format.
func EncodeRecord(w io.Writer, r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// EncodeLedger persists the ledger to an io.Writer in JSONL format, in
// chronological order.
func EncodeLedger(w io.Writer, ledger *Ledger) error {
	for _, r := range ledger.records {
		if err := EncodeRecord(w, r); err != nil {
			return err
		}
	}
	return nil
}
