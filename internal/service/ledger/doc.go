// Package ledger keeps the check-in history and answers staleness questions.
//
// The in-memory history is authoritative for the running process; persistence
// failures are logged and the ledger keeps working from memory.
package ledger
