package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"Warn", WARN, false},
		{"error", ERROR, false},
		{"fatal", FATAL, false},
		{"verbose", -1, true},
		{"", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestShouldLog(t *testing.T) {
	l := &Logger{level: WARN, name: "test"}

	assert.False(t, l.shouldLog(DEBUG))
	assert.False(t, l.shouldLog(INFO))
	assert.True(t, l.shouldLog(WARN))
	assert.True(t, l.shouldLog(ERROR))
	assert.True(t, l.shouldLog(FATAL))
}

func TestWithFieldImmutability(t *testing.T) {
	base := GetLogger("base")
	child := base.WithField("run_id", "abc")

	assert.Empty(t, base.fields)
	assert.Equal(t, "abc", child.fields["run_id"])

	grandchild := child.WithField("node", "decision")
	assert.Len(t, child.fields, 1)
	assert.Len(t, grandchild.fields, 2)
}

func TestWithFields(t *testing.T) {
	l := GetLogger("test").WithFields(
		Field("a", 1),
		Field("b", "two"),
	)

	assert.Equal(t, 1, l.fields["a"])
	assert.Equal(t, "two", l.fields["b"])
}

func TestCloneFields(t *testing.T) {
	src := map[string]interface{}{"k": "v"}
	dst := cloneFields(src)

	dst["k"] = "changed"
	assert.Equal(t, "v", src["k"])

	assert.NotNil(t, cloneFields(nil))
	assert.Empty(t, cloneFields(nil))
}

func TestExtractContextFields(t *testing.T) {
	assert.Nil(t, extractContextFields(nil))
	assert.Nil(t, extractContextFields(context.Background()))

	ctx := context.WithValue(context.Background(), RunIDKey(), "run-1")
	fields := extractContextFields(ctx)
	require.NotNil(t, fields)
	assert.Equal(t, "run-1", fields["run_id"])

	ctx = context.WithValue(ctx, TraceIDKey(), "trace-9")
	fields = extractContextFields(ctx)
	assert.Len(t, fields, 2)
}

func TestFatalUsesExitFunc(t *testing.T) {
	exitCode := -1
	origExit := exitFunc
	exitFunc = func(code int) { exitCode = code }
	defer func() { exitFunc = origExit }()

	l := &Logger{level: DEBUG, name: "test"}
	l.Fatal("boom")

	assert.Equal(t, 1, exitCode)
}
