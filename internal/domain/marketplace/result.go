package marketplace

// PlatformSyncResult is the outcome of one stock push attempt for one platform.
// It is not persisted.
type PlatformSyncResult struct {
	Platform  Platform  `json:"platform"`
	Success   bool      `json:"success"`
	Skipped   bool      `json:"skipped,omitempty"`
	ItemsSent int       `json:"items_sent"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	// Unaddressed SKUs the adapter could not publish
	Unaddressed []string `json:"unaddressed,omitempty"`
}

// NothingToSend builds the result for a platform with no aliased items in the batch
func NothingToSend(p Platform) PlatformSyncResult {
	return PlatformSyncResult{
		Platform: p,
		Success:  true,
		Skipped:  true,
		Message:  "nothing to send",
	}
}

// FailedResult builds a failure result from an adapter error
func FailedResult(p Platform, err error) PlatformSyncResult {
	return PlatformSyncResult{
		Platform:  p,
		Success:   false,
		Error:     err.Error(),
		ErrorKind: Classify(err),
	}
}
