// Package observability defines the logging interfaces shared by every
// component. Components accept a Logger and default to NopLogger; binaries
// install the text logger.
package observability

import (
	"fmt"
	"io"
	"sync"
	"time"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type float64Field struct {
	key string
	val float64
}

func (f float64Field) Key() string        { return f.key }
func (f float64Field) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field          { return stringField{key, value} }
func Int(key string, value int) Field         { return intField{key, value} }
func Float64(key string, value float64) Field { return float64Field{key, value} }
func Error(key string, err error) Field       { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// textLogger writes one line per event: timestamp, level, message, key=value.
type textLogger struct {
	mu    *sync.Mutex
	out   io.Writer
	bound []Field
	now   func() time.Time
}

// NewTextLogger returns a Logger that writes human-readable lines to out.
func NewTextLogger(out io.Writer) Logger {
	return &textLogger{mu: &sync.Mutex{}, out: out, now: time.Now}
}

func (l *textLogger) log(level, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %-5s %s", l.now().Format(time.RFC3339), level, msg)
	for _, f := range l.bound {
		fmt.Fprintf(l.out, " %s=%v", f.Key(), f.Value())
	}
	for _, f := range fields {
		fmt.Fprintf(l.out, " %s=%v", f.Key(), f.Value())
	}
	fmt.Fprintln(l.out)
}

func (l *textLogger) Debug(msg string, fields ...Field) { l.log("DEBUG", msg, fields) }
func (l *textLogger) Info(msg string, fields ...Field)  { l.log("INFO", msg, fields) }
func (l *textLogger) Warn(msg string, fields ...Field)  { l.log("WARN", msg, fields) }
func (l *textLogger) Error(msg string, fields ...Field) { l.log("ERROR", msg, fields) }

func (l *textLogger) With(fields ...Field) Logger {
	bound := make([]Field, 0, len(l.bound)+len(fields))
	bound = append(bound, l.bound...)
	bound = append(bound, fields...)
	return &textLogger{mu: l.mu, out: l.out, bound: bound, now: l.now}
}
