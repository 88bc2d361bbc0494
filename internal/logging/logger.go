package logging

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// Fields carries structured context for one log line.
type Fields map[string]interface{}

// Lines go to stderr as bare JSON objects; the stdlib logger's own
// prefixes stay off so every line parses on its own.
var out = log.New(os.Stderr, "", 0)

func emit(level, msg string, err error, fields Fields) {
	entry := make(map[string]interface{}, len(fields)+4)
	for k, v := range fields {
		entry[k] = v
	}
	if err != nil {
		entry["error"] = err.Error()
	}
	// Reserved keys win over caller-supplied fields.
	entry["level"] = level
	entry["msg"] = msg
	entry["ts"] = time.Now().UTC().Format(time.RFC3339)
	b, mErr := json.Marshal(entry)
	if mErr != nil {
		out.Printf("{\"level\":%q,\"msg\":%q}", level, msg)
		return
	}
	out.Println(string(b))
}

// Info logs an informational message with optional fields.
func Info(msg string, fields Fields) {
	emit("info", msg, nil, fields)
}

// Error logs an error message; the error text lands in the "error" field.
func Error(msg string, err error, fields Fields) {
	emit("error", msg, err, fields)
}

// Fatal logs the message and exits the process.
func Fatal(msg string, err error, fields Fields) {
	emit("fatal", msg, err, fields)
	os.Exit(1)
}
