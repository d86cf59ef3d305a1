package sink

// Level is the severity of a log record.
type Level int

// Severity levels, in increasing order.
const (
	LevelVerbose Level = iota
	LevelDebug
	LevelInformation
	LevelWarning
	LevelError
	LevelFatal
)

// levelCodes is the fixed mapping from severity levels to the short codes
// stored in the level column.
var levelCodes = map[Level]string{
	LevelVerbose:     "TRACE",
	LevelDebug:       "DEBUG",
	LevelInformation: "INFO",
	LevelWarning:     "WARN",
	LevelError:       "ERROR",
	LevelFatal:       "FATAL",
}

// Code returns the short code persisted for the level. The mapping is total:
// any value outside the defined levels maps to "INFO" rather than failing,
// so a bad level can never fail a batch.
func (l Level) Code() string {
	if code, ok := levelCodes[l]; ok {
		return code
	}
	return "INFO"
}

// String returns the level's short code.
func (l Level) String() string {
	return l.Code()
}

// ParseLevel parses an upstream severity name. Like Code, the function is
// total: an unrecognized name parses to Information rather than failing.
func ParseLevel(name string) Level {
	switch name {
	case "Verbose", "verbose", "trace", "TRACE":
		return LevelVerbose
	case "Debug", "debug", "DEBUG":
		return LevelDebug
	case "Information", "information", "info", "INFO":
		return LevelInformation
	case "Warning", "warning", "warn", "WARN":
		return LevelWarning
	case "Error", "error", "ERROR":
		return LevelError
	case "Fatal", "fatal", "FATAL":
		return LevelFatal
	default:
		return LevelInformation
	}
}
