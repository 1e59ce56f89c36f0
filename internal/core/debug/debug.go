// Package debug contains the diagnostics that can be turned on through the
// debugging section of the config.
package debug

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dcrodman/craftmine/internal/core/metrics"
)

// StartUtilities spins off the services associated with debug mode: the
// default pprof handlers and the prometheus metrics endpoint, both served
// on localhost. See https://golang.org/pkg/net/http/pprof/
func StartUtilities(logger *logrus.Logger, pprofPort int) *http.Server {
	metrics.RegisterMetrics()
	http.Handle("/metrics", promhttp.Handler())

	listenerAddr := fmt.Sprintf("localhost:%d", pprofPort)
	logger.Infof("starting pprof and metrics server on %s", listenerAddr)

	srv := &http.Server{Addr: listenerAddr}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("error starting pprof server: %s", err)
		}
	}()
	return srv
}
