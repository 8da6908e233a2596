// Package core reconciles court case-list exports against a case registry.
//
// The package holds all import logic independent of transport and storage.
// It is driven by the HTTP server, the docket CLI and tests alike.
//
// # Import flow
//
// A document is read as a stream of tokens (see package document). The
// [RowAssembler] turns tokens into rows of trimmed cells. The first row whose
// cells equal a known header signature fixes the [StrategyKind] for the rest
// of the document; rows before it are skipped. Each following row with the
// strategy's column count is reconciled against the [CaseRegistry] and lands
// in exactly one bucket of the [Report]:
//
//   - Imported: a new case was created
//   - Settled: an open case was closed
//   - Updated: an existing case changed
//   - Ignored: the row matched what the registry already holds
//   - Unknown: the row refers to a case the registry does not have
//   - Errors: the row could not be processed; the message names row and column
//
// A failing row never aborts the import. Only a tokenizer error does.
//
// # Due dates
//
// Hearing dates get a to-do date: the due date minus [PreparationDays],
// moved back to Friday when it falls on a weekend ([TodoDate]).
//
// # Service
//
// [Service] wraps the engine with format detection, per-registry
// serialization ([ImportLimiter]), timeouts, dry runs ([Overlay]) and the
// import history ([HistoryStore]).
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]. Each
// message carries a code (DOC, KEY, IMP, VAL, DB, RATE) for support reference.
package core
