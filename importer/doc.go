// Package importer loads knowledge-base conditions into a condition
// repository.
//
// Conditions are written in batches, in declaration order. Transient write
// conflicts are retried with exponential backoff, and progress is reported to
// a writer. After a replacing import the stored fingerprint is compared with
// the fingerprint of the input.
package importer
