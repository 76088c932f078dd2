// Package finpilot implements the task pipeline behind a personal-finance
// assistant: receipt scanning, chat replies and account connections are
// modelled as asynchronous tasks that are registered as pending on submit,
// resolved (or failed) after a configurable latency, and observed by the UI
// through snapshots and subscriber callbacks.
//
// Quick start:
//  1. Build a Store (NewMemoryStore, or NewSQLStore over a *sql.DB).
//  2. Create a Pipeline with New(store, ...) and Subscribe for updates.
//  3. Submit work with Submit(ctx, kind, input); read state back with
//     Snapshot, Receipts and ChatTranscript.
//
// Resolution is simulated: the receipt scanner fabricates line items from a
// catalog and the chat responder selects a template by keyword category.
// Package queue swaps the in-process timers for an asynq-backed worker
// without changing the pipeline contract; that is also the seam where real
// OCR, LLM or banking calls would plug in.
//
// There is no cancellation: every submitted task eventually resolves or
// fails.
package finpilot
