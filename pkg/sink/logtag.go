package sink

import (
	"fmt"
	"sort"
	"strings"
)

// logTagMarker is the substring that marks a property value as a logger-tag
// override.
const logTagMarker = "logTag"

// logTagStripper removes the literal tokens carried by a logger-tag value.
var logTagStripper = strings.NewReplacer(logTagMarker, "", "=", "", "{", "", "}", "")

// ResolveLogger resolves the logger identifier for a set of event properties.
//
// Resolution order, which encodes a deliberate override mechanism and must be
// preserved: a property whose scalar value embeds the substring "logTag" wins,
// with the tokens "logTag", "=", "{" and "}" stripped from the value; otherwise
// the SourceContext property's scalar value is used; otherwise the empty
// string. When several properties carry the marker, the first in key order is
// taken so the result is deterministic.
func ResolveLogger(props map[string]any) string {
	if len(props) == 0 {
		return ""
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := scalarString(props[k])
		if strings.Contains(v, logTagMarker) {
			return logTagStripper.Replace(v)
		}
	}

	if v, ok := props[PropSourceContext]; ok {
		return scalarString(v)
	}
	return ""
}

// ResolveTraceID resolves the correlation identifier from the conventional
// request-id property, defaulting to the empty string.
func ResolveTraceID(props map[string]any) string {
	if v, ok := props[PropRequestID]; ok {
		return scalarString(v)
	}
	return ""
}

// scalarString renders a property value as a scalar string.
func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
