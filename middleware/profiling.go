package middleware

import (
	"github.com/grafana/pyroscope-go"

	"github.com/duynhne/user-admin/config"
)

var profiler *pyroscope.Profiler

// InitProfiling starts continuous profiling against the configured Pyroscope server
func InitProfiling(cfg *config.Config) error {
	info := DetectServiceInfo(cfg.Profiling.ServiceName)

	var err error
	profiler, err = pyroscope.Start(pyroscope.Config{
		ApplicationName: info.Name,
		ServerAddress:   cfg.Profiling.Endpoint,
		Tags: map[string]string{
			"service":   info.Name,
			"namespace": info.Namespace,
			"version":   cfg.Service.Version,
			"env":       cfg.Service.Env,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
		Logger: pyroscope.StandardLogger,
	})
	return err
}

// StopProfiling stops Pyroscope profiling
func StopProfiling() {
	if profiler != nil {
		_ = profiler.Stop()
	}
}
