// Package fixtures seeds and inspects a circulation.Store in tests.
// It works against any engine, so the same helpers serve memoryengine unit tests
// and postgresengine integration tests.
package fixtures
