package interceptors

import (
	"errors"
	"strings"
	"testing"

	"github.com/bittoy/reactive/pipeline"
	"github.com/bittoy/reactive/subject"
)

type recordingLogger struct{ lines []string }

func (l *recordingLogger) Debugf(format string, args ...any) {
	l.lines = append(l.lines, sprintf(format, args...))
}
func (l *recordingLogger) Infof(string, ...any)  {}
func (l *recordingLogger) Warnf(string, ...any)  {}
func (l *recordingLogger) Errorf(string, ...any) {}

func sprintf(format string, args ...any) string {
	return format // unformatted: tests check line counts and format text only
}

type stubSubject struct{ *subject.Base }

func newStubSubject() *stubSubject {
	s := &stubSubject{Base: subject.NewBase()}
	s.BindSelf(s)
	return s
}

func TestDebugLogsReadBeforeAndAfter(t *testing.T) {
	logger := &recordingLogger{}
	d := NewDebug(logger)
	s := newStubSubject()

	rc := &pipeline.ReadContext{Ref: subject.Reference{Subject: s, Name: "FirstName"}}
	_, err := d.Read(rc, func() (any, error) { return "Rico", nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logger.lines) != 2 {
		t.Fatalf("expected one before and one after log line, got %d", len(logger.lines))
	}
}

func TestDebugLogsWriteError(t *testing.T) {
	logger := &recordingLogger{}
	d := NewDebug(logger)
	s := newStubSubject()

	wc := &pipeline.WriteContext{Ref: subject.Reference{Subject: s, Name: "FirstName"}, CurrentValue: "a", NewValue: "b"}
	err := d.Write(wc, func() error { return errors.New("boom") })
	if err == nil {
		t.Fatal("expected the terminal error to propagate")
	}
	if len(logger.lines) != 2 || !strings.Contains(logger.lines[1], "error") {
		t.Fatalf("expected an error-annotated after line, got %v", logger.lines)
	}
}

func TestNewDebugDefaultsToNopLogger(t *testing.T) {
	d := NewDebug(nil)
	if d.Logger == nil {
		t.Fatal("expected a non-nil default logger")
	}
}
