package engine

import "time"

// Config holds configuration for the sync executor and scheduler.
type Config struct {
	// Workers is the size of the record-mapping worker pool per run.
	Workers int `mapstructure:"workers" default:"4"`
	// RunTimeoutSeconds bounds the duration of a whole run. A run
	// exceeding it is marked failed with reason sync_timeout.
	RunTimeoutSeconds int `mapstructure:"run_timeout_seconds" default:"300"`
	// FetchAttempts is the maximum number of source fetch attempts for
	// scheduled runs before the run is marked failed.
	FetchAttempts int `mapstructure:"fetch_attempts" default:"3"`
	// SourceTimeoutSeconds bounds each individual source HTTP request.
	SourceTimeoutSeconds int `mapstructure:"source_timeout_seconds" default:"30"`
	// SchedulerEnabled controls whether the time-based trigger runs.
	SchedulerEnabled bool `mapstructure:"scheduler_enabled" default:"true"`
	// NotifyURL is the endpoint receiving sync lifecycle events.
	// Empty disables delivery (events are still logged).
	NotifyURL string `mapstructure:"notify_url" default:""`
}

// RunTimeout returns the run timeout as a duration, with a sane floor.
func (c Config) RunTimeout() time.Duration {
	secs := c.RunTimeoutSeconds
	if secs <= 0 {
		secs = 300
	}
	return time.Duration(secs) * time.Second
}

// SourceTimeout returns the per-request source timeout as a duration.
func (c Config) SourceTimeout() time.Duration {
	secs := c.SourceTimeoutSeconds
	if secs <= 0 {
		secs = 30
	}
	return time.Duration(secs) * time.Second
}

// WorkerCount returns the worker pool size, with a sane floor.
func (c Config) WorkerCount() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}
