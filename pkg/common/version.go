// Package common provides shared utilities for the secscore service: logging,
// environment-driven configuration, the standardized error registry, and
// build version information.
package common

// Version is the current build version of the secscore service.
const Version = "0.1.0"
