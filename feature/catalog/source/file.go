package source

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"catalog-sync/core/value"
	"catalog-sync/feature/catalog/errs"
)

// File formats accepted by the upload endpoint.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Batch is the result of parsing an uploaded file: the raw records that
// parsed cleanly plus a record-level error for every row that did not.
// A single bad row never aborts the file.
type Batch struct {
	Records []value.Value
	Errors  []errs.RecordError
}

// ParseFile parses an uploaded byte stream in the declared format.
func ParseFile(format string, r io.Reader) (Batch, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(r)
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return Batch{}, fmt.Errorf("failed to read upload: %w", err)
		}
		return ParseJSON(data)
	default:
		return Batch{}, errs.Validation("format", "must be csv or json")
	}
}

// ParseCSV parses CSV content where the header row defines field names.
// Rows with the wrong field count are captured as record errors and
// parsing continues.
func ParseCSV(r io.Reader) (Batch, error) {
	reader := csv.NewReader(r)
	// Field count is validated per row below so one short row doesn't
	// abort the reader.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Batch{}, fmt.Errorf("failed to read csv header: %w", err)
	}

	var batch Batch
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			batch.Errors = append(batch.Errors, *errs.Record("", errs.StageParse,
				"line "+strconv.Itoa(line)+": "+err.Error()))
			continue
		}
		if len(row) != len(header) {
			batch.Errors = append(batch.Errors, *errs.Record("", errs.StageParse,
				"line "+strconv.Itoa(line)+": expected "+strconv.Itoa(len(header))+
					" fields, got "+strconv.Itoa(len(row))))
			continue
		}

		fields := make(map[string]string, len(header))
		for i, name := range header {
			fields[name] = row[i]
		}
		batch.Records = append(batch.Records, value.FromStringMap(fields))
	}

	return batch, nil
}

// ParseJSON parses a JSON array of objects. Entries that are not
// objects are captured as record errors and parsing continues.
func ParseJSON(data []byte) (Batch, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return Batch{}, fmt.Errorf("expected a json array of objects: %w", err)
	}

	var batch Batch
	for i, entry := range entries {
		record, err := value.FromJSON(entry)
		if err != nil {
			batch.Errors = append(batch.Errors, *errs.Record("", errs.StageParse,
				"entry "+strconv.Itoa(i)+": "+err.Error()))
			continue
		}
		if record.Kind() != value.Map {
			batch.Errors = append(batch.Errors, *errs.Record("", errs.StageParse,
				"entry "+strconv.Itoa(i)+": not an object"))
			continue
		}
		batch.Records = append(batch.Records, record)
	}

	return batch, nil
}
