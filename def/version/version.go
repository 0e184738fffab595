// Package version defines the current portal version number.
package version

// Number is the current portal version number.
// We use semantic versioning (http://semver.org/).
const Number = "0.3.0"
