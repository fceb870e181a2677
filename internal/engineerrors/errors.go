// Package engineerrors holds the UI-facing error types from the error
// handling design (§7): typed failures every layer above the store
// surfaces verbatim, rather than collapsing them into a generic error.
package engineerrors

import "fmt"

// OfflineContextError means an operation was rejected because the offline
// identity singleton (C2) has no userId/accountId set.
type OfflineContextError struct {
	Reason string
}

func (e *OfflineContextError) Error() string {
	return fmt.Sprintf("offline context error: %s", e.Reason)
}

// OfflineStorageError wraps a local store init or write failure.
type OfflineStorageError struct {
	Op  string
	Err error
}

func (e *OfflineStorageError) Error() string {
	return fmt.Sprintf("offline storage error during %s: %v", e.Op, e.Err)
}

func (e *OfflineStorageError) Unwrap() error {
	return e.Err
}

// StorageQuotaError means a media save was refused because usage crossed
// the quota threshold (§4.6).
type StorageQuotaError struct {
	UsageBytes int64
	QuotaBytes int64
}

func (e *StorageQuotaError) Error() string {
	return "storage quota nearly full"
}

// NetworkTimeoutError means a server-talking call exceeded its deadline
// under the network gate (C8).
type NetworkTimeoutError struct {
	Op string
}

func (e *NetworkTimeoutError) Error() string {
	return fmt.Sprintf("network timeout during %s", e.Op)
}
