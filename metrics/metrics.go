package metrics

import (
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arenads/ds-acceptor/types"
)

const (
	MetricsNamespace = "dsacceptor"
)

var (
	Debug                bool = false
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of runtime errors",
	}, []string{
		"error",
	})

	verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "verdicts_total",
		Help:      "Count of per-target verdicts",
	}, []string{
		"run_id",
		"target",
		"result",
	})

	suiteResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_results",
		Help:      "Result of suite runs",
	}, []string{
		"run_id",
		"result",
	})

	suiteTargetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_targets_total",
		Help:      "Total number of targets run per suite",
	}, []string{
		"run_id",
	})

	suiteTargetsPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_targets_passed",
		Help:      "Number of passing targets per suite",
	}, []string{
		"run_id",
	})

	suiteTargetsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_targets_failed",
		Help:      "Number of failing targets per suite",
	}, []string{
		"run_id",
	})

	suiteDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_duration_seconds",
		Help:      "Wall time of suite runs",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	RecordError(label + "." + errToLabel(err))
}

func RecordVerdict(runID string, target string, result types.RunStatus) {
	if Debug {
		log.Debug("metric inc",
			"m", "verdicts_total",
			"run_id", runID,
			"target", target,
			"result", result)
	}
	verdictsTotal.WithLabelValues(runID, target, string(result)).Inc()
}

func RecordSuite(runID string, result types.RunStatus, stats types.SuiteStats, duration time.Duration) {
	suiteResults.WithLabelValues(runID, string(result)).Set(1)
	suiteTargetsTotal.WithLabelValues(runID).Add(float64(stats.Total))
	suiteTargetsPassed.WithLabelValues(runID).Add(float64(stats.Passed))
	suiteTargetsFailed.WithLabelValues(runID).Add(float64(stats.Failed))
	suiteDuration.WithLabelValues(runID).Set(duration.Seconds())
}
