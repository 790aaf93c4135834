package cmd

// Version is overridden at build time via -ldflags.
var Version = "unknown"
