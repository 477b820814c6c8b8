// Package ingestion loads users and transactions from CSV files into storage.
//
// Column order is free and header names are matched case-insensitively. Rows
// missing an id or the value column are skipped and counted rather than
// failing the import. Parsed rows are written in batches on a worker pool.
package ingestion
