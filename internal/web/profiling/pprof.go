// Package profiling serves pprof endpoints and runtime statistics. The
// handler exposes goroutine stacks and heap contents, so it is only mounted on
// a separate internal listener.
package profiling

import (
	"net/http"
	"net/http/pprof"
	"runtime"

	"github.com/go-chi/chi/v5"

	"github.com/conduit-lang/delivery/internal/web/response"
)

// Config holds profiling configuration
type Config struct {
	// BlockRate sets the block profiling rate (0 = disabled)
	BlockRate int
	// MutexFraction sets the mutex profiling fraction (0 = disabled)
	MutexFraction int
}

// DefaultConfig samples every blocking event and mutex contention
func DefaultConfig() Config {
	return Config{BlockRate: 1, MutexFraction: 1}
}

// Handler returns the pprof index under /debug/pprof and runtime statistics
// under /debug/stats
func Handler(config Config) http.Handler {
	runtime.SetBlockProfileRate(config.BlockRate)
	runtime.SetMutexProfileFraction(config.MutexFraction)

	r := chi.NewRouter()
	r.Route("/debug/pprof", func(r chi.Router) {
		r.HandleFunc("/", pprof.Index)
		r.HandleFunc("/cmdline", pprof.Cmdline)
		r.HandleFunc("/profile", pprof.Profile)
		r.HandleFunc("/symbol", pprof.Symbol)
		r.HandleFunc("/trace", pprof.Trace)
		for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
			r.Handle("/"+name, pprof.Handler(name))
		}
	})
	r.Get("/debug/stats", StatsHandler)
	return r
}

// Stats is a snapshot of runtime statistics
type Stats struct {
	Goroutines   int    `json:"goroutines"`
	HeapAlloc    uint64 `json:"heap_alloc_bytes"`
	HeapObjects  uint64 `json:"heap_objects"`
	TotalAlloc   uint64 `json:"total_alloc_bytes"`
	Sys          uint64 `json:"sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
	PauseTotalNs uint64 `json:"gc_pause_total_ns"`
}

// RuntimeStats reads the current runtime statistics
func RuntimeStats() Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Stats{
		Goroutines:   runtime.NumGoroutine(),
		HeapAlloc:    m.HeapAlloc,
		HeapObjects:  m.HeapObjects,
		TotalAlloc:   m.TotalAlloc,
		Sys:          m.Sys,
		NumGC:        m.NumGC,
		PauseTotalNs: m.PauseTotalNs,
	}
}

// StatsHandler writes RuntimeStats as JSON
func StatsHandler(w http.ResponseWriter, r *http.Request) {
	response.RenderJSON(w, http.StatusOK, RuntimeStats())
}
