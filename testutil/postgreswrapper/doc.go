// Package postgreswrapper opens a postgresengine.Store for integration tests on one of the
// supported drivers, isolated behind a random table prefix.
package postgreswrapper
