package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func completion(p, c int) *Completion {
	return &Completion{Produced: p, Consumed: c}
}

func TestValidateMultisets(t *testing.T) {
	tests := []struct {
		name     string
		produced []Pair
		consumed []Pair
		wantOK   bool
	}{
		{
			name:     "equal multisets ignoring order",
			produced: []Pair{{1, 10}, {1, 10}, {2, 20}},
			consumed: []Pair{{2, 20}, {1, 10}, {1, 10}},
			wantOK:   true,
		},
		{
			name:     "missing one duplicate",
			produced: []Pair{{1, 10}, {1, 10}, {2, 20}},
			consumed: []Pair{{2, 20}, {1, 10}},
			wantOK:   false,
		},
		{
			name:     "extra consumption",
			produced: []Pair{{1, 10}},
			consumed: []Pair{{1, 10}, {1, 10}},
			wantOK:   false,
		},
		{
			name:     "same length different pairs",
			produced: []Pair{{1, 10}, {2, 20}},
			consumed: []Pair{{1, 10}, {2, 21}},
			wantOK:   false,
		},
		{
			name:     "produced but nothing consumed",
			produced: []Pair{{1, 10}},
			consumed: nil,
			wantOK:   false,
		},
		{
			name:     "no producer telemetry skips the multiset check",
			produced: nil,
			consumed: nil,
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := &ParsedOutput{
				Produced:   tt.produced,
				Consumed:   tt.consumed,
				Completion: completion(5, 5),
			}
			res := Validate(parsed, 0)
			assert.Equal(t, tt.wantOK, res.OK, "reasons: %v", res.Reasons)
		})
	}
}

func TestValidateCompletion(t *testing.T) {
	t.Run("matching counters pass", func(t *testing.T) {
		res := Validate(&ParsedOutput{Completion: completion(5, 5)}, 0)
		assert.True(t, res.OK)
	})

	t.Run("disagreeing counters fail regardless of other checks", func(t *testing.T) {
		res := Validate(&ParsedOutput{Completion: completion(5, 4)}, 0)
		assert.False(t, res.OK)
		assert.Contains(t, res.Reasons, "completion counters disagree")
	})

	t.Run("missing completion line fails", func(t *testing.T) {
		res := Validate(&ParsedOutput{}, 0)
		assert.False(t, res.OK)
		assert.Contains(t, res.Reasons, "missing completion line")
	})
}

func TestValidateReturnCode(t *testing.T) {
	parsed := &ParsedOutput{
		Produced:   []Pair{{1, 100}},
		Consumed:   []Pair{{1, 100}},
		Completion: completion(1, 1),
	}
	assert.True(t, Validate(parsed, 0).OK)
	assert.False(t, Validate(parsed, 2).OK)
}

func TestValidateErrorMarkersForceFailure(t *testing.T) {
	// Matching multisets and rc 0 cannot rescue a run that self-reported
	// an error.
	parsed := Parse(`
producer: key=1 value=10
consumer: key=1 value=10
error: lost update detected
done: produced=1 consumed=1
`)
	res := Validate(parsed, 0)
	assert.False(t, res.OK)
	assert.Contains(t, res.Reasons, "error markers in output")
}

func TestMultisetEqual(t *testing.T) {
	assert.True(t, multisetEqual(nil, nil))
	assert.True(t, multisetEqual([]Pair{{1, 1}, {2, 2}}, []Pair{{2, 2}, {1, 1}}))
	assert.False(t, multisetEqual([]Pair{{1, 1}}, []Pair{{1, 1}, {1, 1}}))
	assert.False(t, multisetEqual([]Pair{{1, 1}, {1, 1}}, []Pair{{1, 1}, {2, 2}}))
}
