package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "dilemma")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("classroom"),
				WithSubsystem("arena"),
				WithMetricPrefix("test"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithStepBuckets([]float64{10, 100}),
				WithMetricsEnabled(true),
				WithCustomLabels(map[string]string{"room": "b12"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "classroom")
				So(manager.subsystem, ShouldEqual, "arena")
				So(manager.stepBuckets, ShouldResemble, []float64{10, 100})
			})

			Convey("And the collectors are registered", func() {
				manager.runs.WithLabelValues(OutcomeOK).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "classroom_arena_test_runs_total")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When a run is recorded", func() {
			before := testutil.ToFloat64(globalManager.runs.WithLabelValues(OutcomeInvalidMove))
			RecordRun(OutcomeInvalidMove, 20*time.Millisecond, 1500)

			Convey("Then the outcome counter moves", func() {
				after := testutil.ToFloat64(globalManager.runs.WithLabelValues(OutcomeInvalidMove))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateConnectionState(2)
			UpdateRunGeneration(7)
			UpdateRunQueueLength(3)

			Convey("Then they hold the latest value", func() {
				So(testutil.ToFloat64(globalManager.connectionState), ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.generation), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.runQueueLen), ShouldEqual, 3)
			})
		})

		Convey("When the remaining helpers are used", func() {
			So(func() {
				RecordSupersededRun()
				RecordGamePlayed()
				RecordConnectionAttempt()
				RecordSyncMessage("get", "out")
				RecordRerunDecision("skipped")
				RecordSubmission("1", "sent")
				RecordHTTPRequest("/scoreboard", "GET", "200")
				RecordHTTPRequestDuration("/scoreboard", "GET", "200", 1.5)
				RecordErrorByComponent("sandbox", "script_error")
			}, ShouldNotPanic)
		})

		Convey("When the registry is requested", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
