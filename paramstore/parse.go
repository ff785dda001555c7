package paramstore

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/kinecalc/referenceframe"
)

// ErrParseFailure is returned, wrapped with the offending row, when DH parameter text cannot be
// parsed.
var ErrParseFailure = errors.New("invalid DH parameters")

// fieldNames is the order of the values in a row.
var fieldNames = [...]string{"theta", "d", "a", "alpha", "offset"}

// NewParseFailureError wraps ErrParseFailure with a formatted message.
func NewParseFailureError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrParseFailure, format, args...)
}

// ParseRow parses one comma separated "theta,d,a,alpha,offset" row. Surrounding whitespace is
// ignored.
func ParseRow(row string) (referenceframe.DHParam, error) {
	fields := strings.Split(row, ",")
	if len(fields) != len(fieldNames) {
		return referenceframe.DHParam{}, NewParseFailureError(
			"expected %d comma separated values (theta,d,a,alpha,offset) but got %d", len(fieldNames), len(fields))
	}
	var values [len(fieldNames)]float64
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return referenceframe.DHParam{}, NewParseFailureError("%s: %q is not a number", fieldNames[i], strings.TrimSpace(field))
		}
		values[i] = v
	}
	p := referenceframe.DHParam{Theta: values[0], D: values[1], A: values[2], Alpha: values[3], Offset: values[4]}
	if err := p.Validate(); err != nil {
		return referenceframe.DHParam{}, NewParseFailureError("%v", err)
	}
	return p, nil
}

// ParseRows parses one row per joint, base to tip. Every row is checked and every failure is
// reported, each naming its 1-based row.
func ParseRows(rows []string) ([referenceframe.DoF]referenceframe.DHParam, error) {
	var params [referenceframe.DoF]referenceframe.DHParam
	if len(rows) != referenceframe.DoF {
		return params, NewParseFailureError("expected %d rows but got %d", referenceframe.DoF, len(rows))
	}
	var err error
	for i, row := range rows {
		p, rowErr := ParseRow(row)
		if rowErr != nil {
			err = multierr.Combine(err, errors.Wrapf(rowErr, "row %d", i+1))
			continue
		}
		params[i] = p
	}
	if err != nil {
		return [referenceframe.DoF]referenceframe.DHParam{}, err
	}
	return params, nil
}

// FormatRows renders params in the row format ParseRows accepts.
func FormatRows(params [referenceframe.DoF]referenceframe.DHParam) []string {
	rows := make([]string, 0, len(params))
	for _, p := range params {
		rows = append(rows, p.String())
	}
	return rows
}
