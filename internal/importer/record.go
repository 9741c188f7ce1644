package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// record is one CSV row keyed by header name.
type record map[string]string

func parse(r io.Reader) ([]record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var records []record
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		rec := make(record, len(header))
		for i, h := range header {
			rec[h] = fields[i]
		}
		records = append(records, rec)
	}
}

func fieldError(field, value string) error {
	return fmt.Errorf("invalid %s %q", field, value)
}

func (r record) str(field string) string {
	return strings.TrimSpace(r[field])
}

func (r record) optional(field string) *string {
	v := r.str(field)
	if v == "" {
		return nil
	}
	return &v
}

func (r record) uintField(field string) (uint, error) {
	v, err := strconv.ParseUint(r.str(field), 10, 64)
	if err != nil || v == 0 {
		return 0, fieldError(field, r[field])
	}
	return uint(v), nil
}

func (r record) optionalUintField(field string) (*uint, error) {
	if r.str(field) == "" {
		return nil, nil
	}
	v, err := r.uintField(field)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r record) intField(field string) (int, error) {
	v, err := strconv.Atoi(r.str(field))
	if err != nil {
		return 0, fieldError(field, r[field])
	}
	return v, nil
}

// timeField parses an RFC 3339 timestamp. A blank value yields the zero time, which
// the database replaces with the insert time.
func (r record) timeField(field string) (time.Time, error) {
	v := r.str(field)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fieldError(field, v)
	}
	return t, nil
}
