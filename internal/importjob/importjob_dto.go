package importjob

type CreateImportJobRequest struct {
	Filename string `json:"filename" binding:"required"`
}

type ImportJobResponse struct {
	ID                string  `json:"id"`
	Filename          string  `json:"filename"`
	Status            string  `json:"status"`
	TotalLines        *int    `json:"total_lines"`
	ProcessedLines    int     `json:"processed_lines"`
	SkippedLines      int     `json:"skipped_lines"`
	CompaniesImported int     `json:"companies_imported"`
	PersonsImported   int     `json:"persons_imported"`
	SearchSyncError   *string `json:"search_sync_error,omitempty"`
	Degraded          bool    `json:"degraded,omitempty"`
	ErrorMessage      *string `json:"error_message,omitempty"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

type ImportFileInfo struct {
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	SizeHuman string `json:"size_human"`
}
