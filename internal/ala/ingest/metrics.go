package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/estudiopraxis/console/pkg/models"
)

var refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ala_source_refresh_total",
	Help: "Watchlist source refresh attempts by outcome.",
}, []string{"source", "outcome"})

func recordRefresh(id models.WatchlistSourceID, outcome string) {
	refreshTotal.WithLabelValues(string(id), outcome).Inc()
}
