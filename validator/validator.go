package validator

// Result is the outcome of validating one run's parsed output.
type Result struct {
	OK      bool
	Reasons []string
}

// Validate applies the consistency checks to a parsed run. A run passes
// iff the return code is zero, no error markers were seen, a completion
// tuple is present with equal counters, and (when producer telemetry is
// present) the produced and consumed events agree as multisets.
//
// Targets that print no producer lines at all skip the multiset check;
// only the return-code, marker and completion checks apply to them.
func Validate(parsed *ParsedOutput, returnCode int) Result {
	var reasons []string

	if returnCode != 0 {
		reasons = append(reasons, "non-zero return code")
	}
	if len(parsed.ErrorMarkers) > 0 {
		reasons = append(reasons, "error markers in output")
	}
	switch {
	case parsed.Completion == nil:
		reasons = append(reasons, "missing completion line")
	case parsed.Completion.Produced != parsed.Completion.Consumed:
		reasons = append(reasons, "completion counters disagree")
	}

	if len(parsed.Produced) > 0 {
		switch {
		case len(parsed.Consumed) == 0:
			reasons = append(reasons, "produced events but nothing consumed")
		case !multisetEqual(parsed.Produced, parsed.Consumed):
			reasons = append(reasons, "produced/consumed event mismatch")
		}
	}

	return Result{OK: len(reasons) == 0, Reasons: reasons}
}

// multisetEqual compares two event collections counting multiplicity,
// ignoring order.
func multisetEqual(a, b []Pair) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[Pair]int, len(a))
	for _, p := range a {
		counts[p]++
	}
	for _, p := range b {
		counts[p]--
		if counts[p] < 0 {
			return false
		}
	}
	return true
}
