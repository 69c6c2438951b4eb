package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then collectors are registered on it", func() {
				So(manager, ShouldNotBeNil)
				manager.resourcesCreated.WithLabelValues("skill").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithMetricsEnabled(true),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names use the configured namespace", func() {
				manager.resourcesDeleted.WithLabelValues("credit_package").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if strings.HasPrefix(f.GetName(), "test_unit_") {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When options receive empty values", func() {
			m := &Manager{namespace: "keep", subsystem: "keep", histogramBuckets: []float64{1}}
			WithNamespace("")(m)
			WithSubsystem("")(m)
			WithHistogramBuckets(nil)(m)
			WithPrometheusRegistry(nil)(m)

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "keep")
				So(m.subsystem, ShouldEqual, "keep")
				So(m.histogramBuckets, ShouldResemble, []float64{1})
				So(m.registry, ShouldBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording catalog outcomes", func() {
			before := testutil.ToFloat64(globalManager.resourcesCreated.WithLabelValues("skill"))
			RecordResourceCreated("skill")
			RecordResourceCreated("skill")

			Convey("Then the created counter grows", func() {
				after := testutil.ToFloat64(globalManager.resourcesCreated.WithLabelValues("skill"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording duplicates and validation failures", func() {
			dupBefore := testutil.ToFloat64(globalManager.duplicateRejected.WithLabelValues("credit_package"))
			valBefore := testutil.ToFloat64(globalManager.validationRejected.WithLabelValues("credit_package", "price"))
			RecordDuplicateRejected("credit_package")
			RecordValidationRejected("credit_package", "price")

			Convey("Then both counters grow by one", func() {
				So(testutil.ToFloat64(globalManager.duplicateRejected.WithLabelValues("credit_package"))-dupBefore, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.validationRejected.WithLabelValues("credit_package", "price"))-valBefore, ShouldEqual, 1)
			})
		})

		Convey("When recording store operations", func() {
			errBefore := testutil.ToFloat64(globalManager.storeErrors.WithLabelValues("skill", "delete"))
			RecordStoreOperation("skill", "delete", 3, nil)
			RecordStoreOperation("skill", "delete", 4, errors.New("conn reset"))

			Convey("Then only failures count as store errors", func() {
				So(testutil.ToFloat64(globalManager.storeErrors.WithLabelValues("skill", "delete"))-errBefore, ShouldEqual, 1)
			})
		})

		Convey("When recording HTTP, error and system metrics", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordHTTPRequest("/api/coaches/skill", "GET", "200", 1.5)
					RecordErrorByType("client_error", "medium")
					RecordErrorByEndpoint("/api/coaches/skill", "POST", "conflict")
					RecordResourceDeleted("skill")
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
				}, ShouldNotPanic)
			})
		})

		Convey("When gathering the registry", func() {
			RecordHTTPRequest("/healthz", "GET", "200", 0.2)
			families, err := GetRegistry().Gather()

			Convey("Then catalog metrics are exposed", func() {
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "catalog_api_http_requests_total")
			})
		})
	})
}

func TestMetricsDisabled(t *testing.T) {
	Convey("Given a disabled global manager", t, func() {
		saved := globalManager
		globalManager = NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
		defer func() { globalManager = saved }()

		RecordResourceCreated("skill")

		Convey("Then recording is a no-op", func() {
			So(testutil.ToFloat64(globalManager.resourcesCreated.WithLabelValues("skill")), ShouldEqual, 0)
		})
	})
}
