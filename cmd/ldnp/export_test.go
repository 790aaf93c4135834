package main

var RunMain = run

// ExitCode extracts the exit code from a recovered exitStatus panic value.
func ExitCode(v interface{}) (int, bool) {
	if e, ok := v.(*exitStatus); ok {
		return e.code, true
	}
	return 0, false
}
