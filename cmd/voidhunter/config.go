package main

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose    = "verbose"
	FlagConfig     = "config"
	FlagLogFile    = "log-file"
	FlagReportFile = "report-file"
	FlagSocketPath = "socket-path"

	// Watch command flags
	FlagTUI           = "tui"
	FlagWindow        = "window"
	FlagMinInterval   = "min-interval"
	FlagMetricsListen = "metrics-listen"
	FlagLogTicks      = "log-ticks"

	// Events command flags
	FlagFollow = "follow"
	FlagCount  = "count"

	// Output format flags
	FlagJSON = "json"
)
