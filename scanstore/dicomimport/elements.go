package dicomimport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/arthur-debert/scanstore/types"
)

// Element maps one DICOM header element to a scanstore tag
type Element struct {
	DICOM       tag.Tag
	Name        string
	Type        types.FieldType
	Description string
	Unit        string
}

// Tag returns the builtin tag definition for the element
func (e Element) Tag() types.Tag {
	return types.Tag{
		Name:        e.Name,
		Type:        e.Type,
		Description: e.Description,
		Unit:        e.Unit,
		Origin:      types.OriginBuiltin,
	}
}

// DefaultElements are the header elements imported when no mapping is given
var DefaultElements = []Element{
	{DICOM: tag.PatientName, Name: "PatientName", Type: types.FieldString, Description: "Patient name"},
	{DICOM: tag.PatientID, Name: "PatientID", Type: types.FieldString, Description: "Patient identifier"},
	{DICOM: tag.StudyDate, Name: "StudyDate", Type: types.FieldDate, Description: "Study date"},
	{DICOM: tag.Modality, Name: "Modality", Type: types.FieldString},
	{DICOM: tag.SeriesDescription, Name: "SeriesDescription", Type: types.FieldString},
	{DICOM: tag.SeriesNumber, Name: "SeriesNumber", Type: types.FieldInteger},
	{DICOM: tag.SequenceName, Name: "SequenceName", Type: types.FieldString, Description: "Acquisition sequence"},
	{DICOM: tag.AcquisitionTime, Name: "AcquisitionTime", Type: types.FieldTime},
	{DICOM: tag.EchoTime, Name: "EchoTime", Type: types.FieldFloat, Unit: "ms"},
	{DICOM: tag.RepetitionTime, Name: "RepetitionTime", Type: types.FieldFloat, Unit: "ms"},
	{DICOM: tag.FlipAngle, Name: "FlipAngle", Type: types.FieldFloat, Unit: "deg"},
	{DICOM: tag.ImageType, Name: "ImageType", Type: types.FieldListString},
}

var errNoValue = errors.New("element has no value")

// Values extracts the mapped elements of a parsed dataset. Elements that are
// missing, empty or unconvertible are left out; the unconvertible ones are
// reported in skipped.
func Values(ds dicom.Dataset, elements []Element, schema *types.TagSet) (values map[string]any, skipped []string) {
	values = make(map[string]any)
	for _, el := range elements {
		ft := el.Type
		if schema != nil {
			if t, ok := schema.Get(el.Name); ok {
				ft = t.Type
			}
		}

		found, err := ds.FindElementByTag(el.DICOM)
		if err != nil || found.Value == nil {
			continue
		}
		v, err := convert(found.Value, ft)
		if errors.Is(err, errNoValue) {
			continue
		}
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("%s: %v", el.Name, err))
			continue
		}
		values[el.Name] = v
	}
	return values, skipped
}

// convert turns a DICOM value into the canonical value of ft. Multi-valued
// elements fill list tags; scalar tags take the first value.
func convert(value dicom.Value, ft types.FieldType) (any, error) {
	raw, err := rawValues(value)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errNoValue
	}

	if !ft.IsList() {
		return convertOne(raw[0], ft)
	}
	out := make([]any, 0, len(raw))
	for _, r := range raw {
		v, err := convertOne(r, ft.Elem())
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// rawValues flattens a DICOM value into strings, ints or floats, dropping
// blank strings
func rawValues(value dicom.Value) ([]any, error) {
	var out []any
	switch value.ValueType() {
	case dicom.Strings:
		for _, s := range value.GetValue().([]string) {
			if s = strings.TrimSpace(strings.TrimRight(s, "\x00")); s != "" {
				out = append(out, s)
			}
		}
	case dicom.Ints:
		for _, i := range value.GetValue().([]int) {
			out = append(out, int64(i))
		}
	case dicom.Floats:
		for _, f := range value.GetValue().([]float64) {
			out = append(out, f)
		}
	default:
		return nil, fmt.Errorf("unsupported value type %d", value.ValueType())
	}
	return out, nil
}

func convertOne(raw any, ft types.FieldType) (any, error) {
	s, isString := raw.(string)
	if !isString {
		return ft.Coerce(raw)
	}
	switch ft {
	case types.FieldDate:
		return parseDA(s)
	case types.FieldTime:
		return parseTM(s)
	case types.FieldDatetime:
		return parseDT(s)
	case types.FieldInteger:
		// IS values may carry a sign or surrounding blanks
		n, err := strconv.ParseInt(strings.TrimPrefix(s, "+"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer string %q", s)
		}
		return n, nil
	}
	return ft.Parse(s)
}

// parseDA reads a DICOM DA value (YYYYMMDD), accepting the ISO form too
func parseDA(s string) (time.Time, error) {
	for _, layout := range []string{"20060102", "2006-01-02", "2006.01.02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid DA value %q", s)
}

// parseTM reads a DICOM TM value (HHMMSS.FFFFFF with optional trailing parts)
func parseTM(s string) (time.Time, error) {
	s = strings.ReplaceAll(s, ":", "")
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s, frac = s[:i], s[i:]
	}
	for len(s) < 6 {
		s += "0"
	}
	if len(s) != 6 {
		return time.Time{}, fmt.Errorf("invalid TM value %q", s+frac)
	}
	t, err := time.Parse("150405.999999", s+frac)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid TM value %q", s+frac)
	}
	return t, nil
}

// parseDT reads a DICOM DT value (YYYYMMDDHHMMSS.FFFFFF&ZZXX), date part required
func parseDT(s string) (time.Time, error) {
	if len(s) < 8 {
		return time.Time{}, fmt.Errorf("invalid DT value %q", s)
	}
	loc := time.UTC
	if i := strings.IndexAny(s, "+-"); i >= 8 {
		offset, err := time.Parse("-0700", s[i:])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid DT offset %q", s)
		}
		loc = offset.Location()
		s = s[:i]
	}
	date, err := parseDA(s[:8])
	if err != nil {
		return time.Time{}, err
	}
	clock := time.Time{}
	if len(s) > 8 {
		if clock, err = parseTM(s[8:]); err != nil {
			return time.Time{}, err
		}
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), loc), nil
}
