// Package build runs the site pipeline: discover, parse, filter, emit and
// manifest. All execution paths (CLI build, preview server, tests) go through
// Builder.Run.
package build
