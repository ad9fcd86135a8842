// Package config provides database connection helpers for integration tests.
//
// The PostgreSQL connection string comes from the REFINE_TEST_POSTGRES_DSN
// environment variable; tests that need a live database skip when it is
// unset.
package config
