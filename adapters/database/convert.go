package database

import (
	"database/sql"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vesperdb/vesper/runtime/types"
)

// timestampLayouts are tried in order when a backend returns timestamps as
// text (mysql without parseTime, sqlite text affinity).
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// decodeRows drains a database/sql row set into a ResultSet, decoding each
// column under the tag derived from the backend's reported column type. When
// the driver reports no usable type the tag is inferred from the scanned
// value instead.
func (a *SQLAdapter) decodeRows(rows *sql.Rows) (*ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, &BackendError{Message: err.Error(), Err: err}
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, &BackendError{Message: err.Error(), Err: err}
	}

	tags := make([]types.Tag, len(cols))
	known := make([]bool, len(cols))
	for i, ct := range colTypes {
		if a.opts.TagOf != nil {
			tags[i], known[i] = a.opts.TagOf(strings.ToUpper(ct.DatabaseTypeName()))
		}
	}

	rs := &ResultSet{Columns: cols, Tags: tags}
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &BackendError{Message: err.Error(), Err: err}
		}
		row := make([]types.Value, len(cols))
		for i := range raw {
			var v types.Value
			var err error
			if known[i] {
				v, err = decodeTagged(raw[i], tags[i], cols[i])
			} else {
				v = inferValue(raw[i])
				if !v.IsNull() && rs.Tags[i] == types.Tag(0) {
					rs.Tags[i] = tagForKind(v.Kind())
				}
			}
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}

// decodeTagged decodes one raw driver value under its column tag. Anything
// that does not fit the tag is a ConversionError; values are never coerced to
// null or stringified to paper over a mismatch.
func decodeTagged(raw any, tag types.Tag, column string) (types.Value, error) {
	if raw == nil {
		return types.Null(), nil
	}
	fail := func() (types.Value, error) {
		return types.Value{}, &ConversionError{Column: column, Tag: tag, Raw: raw}
	}

	switch tag {
	case types.TagInt32, types.TagInt64:
		switch v := raw.(type) {
		case int64:
			return types.Int64(v), nil
		case []byte:
			n, err := strconv.ParseInt(string(v), 10, 64)
			if err != nil {
				return fail()
			}
			return types.Int64(n), nil
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fail()
			}
			return types.Int64(n), nil
		}
		return fail()

	case types.TagBigInt:
		switch v := raw.(type) {
		case int64:
			return types.BigInt(big.NewInt(v)), nil
		case []byte:
			return parseBigInt(string(v), tag, column, raw)
		case string:
			return parseBigInt(v, tag, column, raw)
		}
		return fail()

	case types.TagFloat64:
		switch v := raw.(type) {
		case float64:
			return types.Float64(v), nil
		case int64:
			return types.Float64(float64(v)), nil
		case []byte:
			f, err := strconv.ParseFloat(string(v), 64)
			if err != nil {
				return fail()
			}
			return types.Float64(f), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fail()
			}
			return types.Float64(f), nil
		}
		return fail()

	case types.TagDecimal:
		var s string
		switch v := raw.(type) {
		case []byte:
			s = string(v)
		case string:
			s = v
		case int64:
			s = strconv.FormatInt(v, 10)
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return fail()
		}
		d, err := types.ParseDecimal(s)
		if err != nil {
			return fail()
		}
		return types.DecimalValue(d), nil

	case types.TagBool:
		switch v := raw.(type) {
		case bool:
			return types.Bool(v), nil
		case int64:
			return types.Bool(v != 0), nil
		case []byte:
			return parseBool(string(v), tag, column, raw)
		case string:
			return parseBool(v, tag, column, raw)
		}
		return fail()

	case types.TagText:
		switch v := raw.(type) {
		case string:
			return types.Text(v), nil
		case []byte:
			return types.Text(string(v)), nil
		}
		return fail()

	case types.TagTimestamp:
		switch v := raw.(type) {
		case time.Time:
			return types.Timestamp(v), nil
		case []byte:
			return parseTimestamp(string(v), tag, column, raw)
		case string:
			return parseTimestamp(v, tag, column, raw)
		}
		return fail()

	case types.TagJSON:
		switch v := raw.(type) {
		case []byte:
			return types.JSON(json.RawMessage(v)), nil
		case string:
			return types.JSON(json.RawMessage(v)), nil
		}
		return fail()

	case types.TagBytes:
		switch v := raw.(type) {
		case []byte:
			return types.Bytes(v), nil
		case string:
			return types.Bytes([]byte(v)), nil
		}
		return fail()

	case types.TagUUID:
		switch v := raw.(type) {
		case []byte:
			if len(v) == 16 {
				u, err := uuid.FromBytes(v)
				if err != nil {
					return fail()
				}
				return types.UUID(u), nil
			}
			u, err := uuid.Parse(string(v))
			if err != nil {
				return fail()
			}
			return types.UUID(u), nil
		case string:
			u, err := uuid.Parse(v)
			if err != nil {
				return fail()
			}
			return types.UUID(u), nil
		}
		return fail()
	}
	return fail()
}

func parseBigInt(s string, tag types.Tag, column string, raw any) (types.Value, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return types.Value{}, &ConversionError{Column: column, Tag: tag, Raw: raw}
	}
	return types.BigInt(n), nil
}

func parseBool(s string, tag types.Tag, column string, raw any) (types.Value, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return types.Value{}, &ConversionError{Column: column, Tag: tag, Raw: raw}
	}
	return types.Bool(b), nil
}

func parseTimestamp(s string, tag types.Tag, column string, raw any) (types.Value, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return types.Timestamp(t), nil
		}
	}
	return types.Value{}, &ConversionError{Column: column, Tag: tag, Raw: raw}
}

// inferValue maps a raw driver value by its dynamic type, for columns whose
// reported type the adapter's table does not know (expressions, aliases on
// some drivers).
func inferValue(raw any) types.Value {
	switch v := raw.(type) {
	case nil:
		return types.Null()
	case int64:
		return types.Int64(v)
	case float64:
		return types.Float64(v)
	case bool:
		return types.Bool(v)
	case time.Time:
		return types.Timestamp(v)
	case string:
		return types.Text(v)
	case []byte:
		return types.Text(string(v))
	default:
		return types.Null()
	}
}

func tagForKind(k types.Kind) types.Tag {
	switch k {
	case types.KindInt64:
		return types.TagInt64
	case types.KindBigInt:
		return types.TagBigInt
	case types.KindFloat64:
		return types.TagFloat64
	case types.KindDecimal:
		return types.TagDecimal
	case types.KindBool:
		return types.TagBool
	case types.KindTimestamp:
		return types.TagTimestamp
	case types.KindJSON:
		return types.TagJSON
	case types.KindBytes:
		return types.TagBytes
	case types.KindUUID:
		return types.TagUUID
	default:
		return types.TagText
	}
}
