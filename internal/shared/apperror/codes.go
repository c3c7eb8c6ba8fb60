package apperror

const (
	// Client errors (4xx)
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_STATE"

	// Server errors (5xx)
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	// Import pipeline errors
	CodeRecordDecode           = "RECORD_DECODE"
	CodeIOError                = "IO_ERROR"
	CodeResolutionFailed       = "RESOLUTION_FAILED"
	CodePersistenceFailed      = "PERSISTENCE_FAILED"
	CodeIndexMaintenanceFailed = "INDEX_MAINTENANCE_FAILED"
	CodeSearchSyncFailed       = "SEARCH_SYNC_FAILED"
)
