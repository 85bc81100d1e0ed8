// Package exitcodes defines the standard exit codes used by ds-acceptor.
package exitcodes

// Exit code constants used by ds-acceptor
// These constants define the exit codes that the application uses to
// indicate various states when it exits:
//
// * Success (0): Used when every target passes validation
// * SuiteFailure (1): Used when one or more targets fail
// * RuntimeErr (2): Used for runtime errors such as a failed build step
//   or an unusable target registry
const (
	Success      = 0 // All targets pass
	SuiteFailure = 1 // Target failures
	RuntimeErr   = 2 // Runtime errors
)
