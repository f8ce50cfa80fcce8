// Package config loads the circulation service configuration from the environment
// and builds the infrastructure clients from it.
//
// Load reads an optional .env file first (variables already set in the environment win),
// then parses and validates every setting. The connection helpers create pgx pools,
// database/sql and sqlx handles (lib/pq driver), the Redis client for notifications
// and the OpenTelemetry providers exporting over OTLP gRPC.
//
// This package is part of the shell (infrastructure) layer.
package config
