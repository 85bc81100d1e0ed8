package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want LineKind
	}{
		{"producer", "producer: key=1 value=100", LineProduced},
		{"producer indexed", "producer[3]: key=7 value=42", LineProduced},
		{"consumer", "consumer: key=1 value=100", LineConsumed},
		{"consumer final", "consumer-final: key=2 value=20", LineConsumed},
		{"done", "done: produced=5 consumed=5", LineCompletion},
		{"timeout token", "operation timeout waiting for queue", LineErrorMarker},
		{"rc marker", "child exited rc=1", LineErrorMarker},
		{"error prefix", "error: queue corrupt", LineErrorMarker},
		{"fatal prefix uppercase", "FATAL: arena map failed", LineErrorMarker},
		{"noise", "initializing arena with 4 pages", LineUnrecognized},
		{"producer missing value", "producer: key=1", LineUnrecognized},
		{"timeout substring only", "timeouts=3", LineUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyLine(tt.line).kind)
		})
	}
}

func TestClassifyLineMultipleMarkers(t *testing.T) {
	ev := classifyLine("error: child timeout rc=1")
	require.Equal(t, LineErrorMarker, ev.kind)
	assert.ElementsMatch(t, []string{"timeout", "rc=", "error:"}, ev.markers)
}

func TestParsePairs(t *testing.T) {
	out := Parse(`
producer: key=1 value=100
producer[0]: key=1 value=100
consumer: key=1 value=100
consumer-final: key=1 value=100
done: produced=2 consumed=2
`)

	assert.Equal(t, []Pair{{1, 100}, {1, 100}}, out.Produced)
	// consumer-final merges into the same collection as consumer
	assert.Equal(t, []Pair{{1, 100}, {1, 100}}, out.Consumed)
	require.NotNil(t, out.Completion)
	assert.Equal(t, Completion{Produced: 2, Consumed: 2}, *out.Completion)
	assert.Empty(t, out.ErrorMarkers)
}

func TestParseDoneLastWins(t *testing.T) {
	out := Parse("done: produced=1 consumed=1\ndone: produced=3 consumed=2\n")
	require.NotNil(t, out.Completion)
	assert.Equal(t, 3, out.Completion.Produced)
	assert.Equal(t, 2, out.Completion.Consumed)
}

func TestParseIgnoresNoise(t *testing.T) {
	out := Parse("starting up\n\n   \nsome banner line\n")
	assert.Empty(t, out.Produced)
	assert.Empty(t, out.Consumed)
	assert.Nil(t, out.Completion)
	assert.Empty(t, out.ErrorMarkers)
}

func TestParseCollectsMarkers(t *testing.T) {
	out := Parse("error: boom\nworker timeout during drain\nchild rc=2 observed\n")
	assert.Equal(t, []string{"error:", "timeout", "rc="}, out.ErrorMarkers)
}
