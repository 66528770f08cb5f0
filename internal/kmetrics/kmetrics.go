// Copyright 2024 The unix74 Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package kmetrics exposes kernel-internal counters and gauges for
// Prometheus scraping, grounded on gcsfuse's internal/monitor package and
// its prometheus/client_golang dependency.
package kmetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SyscallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unix74",
		Name:      "syscalls_total",
		Help:      "Count of syscalls served by the kernel, labeled by name and resulting errno.",
	}, []string{"syscall", "errno"})

	ProcessesLive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "unix74",
		Name:      "processes_live",
		Help:      "Number of entries currently in the process table.",
	})

	OpenFilesLive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "unix74",
		Name:      "open_files_live",
		Help:      "Number of entries currently in the global open-file table.",
	})
)

// Serve starts a blocking HTTP server exposing /metrics on addr. Intended
// to run in its own goroutine; returns the http.ListenAndServe error.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
