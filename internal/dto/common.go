package dto

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ListRequest defines filters shared by the active and archived listings.
type ListRequest struct {
	Page     int
	PageSize int
	Search   string
}

// Confirmation acknowledges a lifecycle transition that does not return the record.
type Confirmation struct {
	Operation  string `json:"operation"`
	ActiveID   *uint  `json:"active_id,omitempty"`
	ArchivedID *uint  `json:"archived_id,omitempty"`
	StudentID  string `json:"student_id"`
}
