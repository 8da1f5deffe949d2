package ros

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"trace":   LogLevelDebug,
		"info":    LogLevelInfo,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
		"panic":   LogLevelFatal,
	}
	for name, expected := range cases {
		if lvl, err := ParseLogLevel(name); err != nil || lvl != expected {
			t.Errorf("ParseLogLevel(%q) = %v, %v", name, lvl, err)
		}
	}
	if _, err := ParseLogLevel("chatty"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestModuleSeverity(t *testing.T) {
	var buf bytes.Buffer
	root := NewLogger(&buf)
	transport := root.WithModule("ros")
	relay := root.WithModule("relay")

	transport.SetSeverity(LogLevelWarn)
	relay.SetSeverity(LogLevelDebug)

	transport.Info("transport chatter")
	transport.WithField("topic", "/in").Debug("per topic chatter")
	relay.WithField("topic", "/out").Debugf("relay %s", "detail")
	root.Debug("root detail")
	root.Info("root milestone")

	out := buf.String()
	for _, hidden := range []string{"transport chatter", "per topic chatter", "root detail"} {
		if strings.Contains(out, hidden) {
			t.Errorf("%q should have been filtered:\n%s", hidden, out)
		}
	}
	for _, shown := range []string{"relay detail", "module=relay", "topic=/out", "root milestone"} {
		if !strings.Contains(out, shown) {
			t.Errorf("missing %q in:\n%s", shown, out)
		}
	}

	if root.Severity() != LogLevelInfo {
		t.Errorf("root severity %v", root.Severity())
	}
	if transport.WithField("topic", "/in").Severity() != LogLevelWarn {
		t.Error("derived loggers keep the module severity")
	}
}

func TestDefaultSeverityAppliesToModulesWithoutOwnLevel(t *testing.T) {
	var buf bytes.Buffer
	root := NewLogger(&buf)
	relay := root.WithModule("relay")

	root.SetSeverity(LogLevelError)
	relay.Warn("quiet")
	if buf.Len() != 0 {
		t.Errorf("unexpected output %q", buf.String())
	}
	root.SetSeverity(LogLevelDebug)
	relay.Debug("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Errorf("missing output %q", buf.String())
	}
}
