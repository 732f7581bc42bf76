package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type PipelineMetrics struct {
	RunDuration  *prometheus.HistogramVec
	FeatureRows  *prometheus.GaugeVec
	FeatureCount *prometheus.GaugeVec
}

type PublishMetrics struct {
	RowsPublished *prometheus.CounterVec
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_features_db_query_duration_seconds",
				Help:    "Histogram of table store query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Pipeline = PipelineMetrics{
		RunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_features_pipeline_run_duration_seconds",
				Help:    "Duration of feature pipeline runs.",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"entity", "status"},
		),
		FeatureRows: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "loan_features_rows",
				Help: "Rows in the last generated feature table.",
			},
			[]string{"entity"},
		),
		FeatureCount: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "loan_features_columns",
				Help: "Columns in the last generated feature table.",
			},
			[]string{"entity"},
		),
	}

	Publish = PublishMetrics{
		RowsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_features_sheet_rows_published_total",
				Help: "Total number of rows appended to spreadsheet tabs.",
			},
			[]string{"tab"},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordPipelineRun(entity, status string, duration time.Duration) {
	Pipeline.RunDuration.WithLabelValues(entity, status).Observe(duration.Seconds())
}

func RecordFeatureTable(entity string, rows, columns int) {
	Pipeline.FeatureRows.WithLabelValues(entity).Set(float64(rows))
	Pipeline.FeatureCount.WithLabelValues(entity).Set(float64(columns))
}

func RecordRowsPublished(tab string, rows int) {
	Publish.RowsPublished.WithLabelValues(tab).Add(float64(rows))
}

// StatusLabel maps an operation result to the "status" label value.
func StatusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
