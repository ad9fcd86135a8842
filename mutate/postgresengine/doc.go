// Package postgresengine provides a PostgreSQL implementation of the mutate
// data provider interfaces.
//
// This package implements batch record updates using PostgreSQL as the
// storage backend, supporting multiple database adapters (pgx, sql.DB, sqlx)
// with a single atomic UPDATE statement per batch.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Atomic batch updates returning the full updated rows
//   - Configurable resource-to-table mapping and id column
//   - Dual-logger support plus metrics and tracing collectors
//
// Usage examples:
//
//	// Basic usage, table name defaults to the resource name
//	db, _ := pgxpool.New(context.Background(), dsn)
//	provider, _ := postgresengine.NewProviderFromPGXPool(db)
//
//	// With a table mapping and operational logging
//	provider, _ := postgresengine.NewProviderFromPGXPool(
//		db,
//		postgresengine.WithTableMapping(map[string]string{"posts": "blog_posts"}),
//		postgresengine.WithLogger(logger),
//	)
//
//	records, _ := provider.UpdateMany(ctx, "posts", ids, values, nil)
package postgresengine
