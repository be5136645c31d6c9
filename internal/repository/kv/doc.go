// Package kv defines the durable key-value Store the monitor persists its
// ledger and contact registry through, plus file and in-memory backends.
//
// Network and SQL backends live in the redisstore, sqlitestore and pgstore
// subpackages and satisfy the same Store interface.
package kv
