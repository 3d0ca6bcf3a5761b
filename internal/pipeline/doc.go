// Package pipeline sequences a single run: metadata lookup, download, and for
// video runs caption extraction, translation and subtitle burn-in.
//
// A Pipeline is configured once from config.Config and its collaborators
// (executor, metadata fetcher, prober, translator, ledger, notifier) can be
// replaced with options for tests. Each call to Run owns a fresh RunConfig,
// cancellation token and event stream; nothing is shared between runs.
//
// Run never returns an error. Every outcome past validation is persisted to
// the ledger exactly once, reported to the notifier and published as the
// final Result event.
package pipeline
