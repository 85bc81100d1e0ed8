// Package validator reconstructs producer/consumer events from captured
// target output and checks their consistency.
package validator

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// LineKind classifies a single output line.
type LineKind int

const (
	LineUnrecognized LineKind = iota
	LineProduced
	LineConsumed
	LineCompletion
	LineErrorMarker
)

// Pair is one key/value event reported by a producer or consumer.
type Pair struct {
	Key   int
	Value int
}

// Completion is the produced/consumed counter pair a target reports at
// shutdown.
type Completion struct {
	Produced int
	Consumed int
}

// ParsedOutput is the aggregate of all recognized events in one run's
// output. Ordering across categories is irrelevant.
type ParsedOutput struct {
	Produced     []Pair
	Consumed     []Pair
	Completion   *Completion // nil if no done: line was seen
	ErrorMarkers []string
}

var (
	producerRe      = regexp.MustCompile(`^producer(?:\[\d+\])?: key=(\d+) value=(\d+)\b`)
	consumerRe      = regexp.MustCompile(`^consumer: key=(\d+) value=(\d+)\b`)
	consumerFinalRe = regexp.MustCompile(`^consumer-final: key=(\d+) value=(\d+)\b`)
	doneRe          = regexp.MustCompile(`^done: produced=(\d+) consumed=(\d+)\b`)
)

// lineEvent is the classifier result for one line.
type lineEvent struct {
	kind       LineKind
	pair       Pair
	completion Completion
	markers    []string
}

// classifyLine maps a trimmed, non-empty line to exactly one event kind.
// Lines that match none of the structured patterns are scanned for error
// markers; a single line can carry several markers.
func classifyLine(line string) lineEvent {
	if m := producerRe.FindStringSubmatch(line); m != nil {
		return lineEvent{kind: LineProduced, pair: pairFromMatch(m)}
	}
	if m := consumerRe.FindStringSubmatch(line); m != nil {
		return lineEvent{kind: LineConsumed, pair: pairFromMatch(m)}
	}
	// consumer-final is a terminal-report variant of the same event,
	// not a separate category.
	if m := consumerFinalRe.FindStringSubmatch(line); m != nil {
		return lineEvent{kind: LineConsumed, pair: pairFromMatch(m)}
	}
	if m := doneRe.FindStringSubmatch(line); m != nil {
		return lineEvent{
			kind: LineCompletion,
			completion: Completion{
				Produced: mustAtoi(m[1]),
				Consumed: mustAtoi(m[2]),
			},
		}
	}
	if markers := scanErrorMarkers(line); len(markers) > 0 {
		return lineEvent{kind: LineErrorMarker, markers: markers}
	}
	return lineEvent{kind: LineUnrecognized}
}

// scanErrorMarkers collects the error-marker tags present in a line.
func scanErrorMarkers(line string) []string {
	var markers []string
	lower := strings.ToLower(line)
	if strings.Contains(" "+lower+" ", " timeout ") {
		markers = append(markers, "timeout")
	}
	if strings.Contains(line, " rc=") {
		markers = append(markers, "rc=")
	}
	if strings.HasPrefix(lower, "error:") || strings.HasPrefix(lower, "fatal:") {
		markers = append(markers, "error:")
	}
	return markers
}

// Parse folds the line stream of a captured run into a ParsedOutput.
// Unrecognized lines are ignored so extra log noise stays harmless.
func Parse(text string) *ParsedOutput {
	out := &ParsedOutput{}

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ev := classifyLine(line)
		switch ev.kind {
		case LineProduced:
			out.Produced = append(out.Produced, ev.pair)
		case LineConsumed:
			out.Consumed = append(out.Consumed, ev.pair)
		case LineCompletion:
			// Last occurrence wins.
			c := ev.completion
			out.Completion = &c
		case LineErrorMarker:
			out.ErrorMarkers = append(out.ErrorMarkers, ev.markers...)
		}
	}

	return out
}

func pairFromMatch(m []string) Pair {
	return Pair{Key: mustAtoi(m[1]), Value: mustAtoi(m[2])}
}

// mustAtoi converts a digits-only regex capture. The patterns guarantee
// the input parses.
func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
