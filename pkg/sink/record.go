package sink

import (
	"encoding/json"
)

// RenderRow renders a record to its column values.
//
// When utc is true both timestamp columns are rendered in UTC, otherwise in
// local time; either way the two strings read the same instant. The long_date
// string is truncated to whole seconds and is the value the retention cleaner
// compares against, so the utc flag here must match the cleaner's.
func RenderRow(r *Record, utc bool) Row {
	ts := r.Timestamp
	if utc {
		ts = ts.UTC()
	} else {
		ts = ts.Local()
	}

	return Row{
		Timestamp:  ts.Format(TimestampLayout),
		Level:      r.Level.Code(),
		Message:    r.Message,
		LongDate:   ts.Format(LongDateLayout),
		Logger:     ResolveLogger(r.Properties),
		TraceID:    ResolveTraceID(r.Properties),
		Exception:  exceptionText(r.Err),
		Properties: propertiesBlob(r.Properties),
	}
}

// exceptionText returns the full rendering of an attached error, or "" when
// there is none.
func exceptionText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// propertiesBlob serializes the attached properties as JSON, or "" when the
// record carries none. Serialization failures degrade to "" rather than
// failing the record.
func propertiesBlob(props map[string]any) string {
	if len(props) == 0 {
		return ""
	}
	blob, err := json.Marshal(props)
	if err != nil {
		return ""
	}
	return string(blob)
}
