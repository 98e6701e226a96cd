package dto

import "time"

// APIResponse is the standard envelope for successful responses.
type APIResponse struct {
	Success    bool            `json:"success" example:"true"`
	Message    string          `json:"message,omitempty" example:"Operation completed successfully"`
	Data       interface{}     `json:"data,omitempty"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
	Timestamp  time.Time       `json:"timestamp" example:"2026-02-11T12:01:05.123Z"`
}

// PaginationInfo describes the page window of a list response.
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage" example:"1"`
	PageSize    int   `json:"pageSize" example:"10"`
	TotalItems  int64 `json:"totalItems" example:"42"`
	TotalPages  int   `json:"totalPages" example:"5"`
}

// NewSuccessResponse creates a success envelope around data.
func NewSuccessResponse(data interface{}, message string) *APIResponse {
	return &APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewPagedResponse creates a success envelope with pagination info.
func NewPagedResponse(data interface{}, page, size int, totalItems int64) *APIResponse {
	totalPages := 0
	if totalItems > 0 && size > 0 {
		totalPages = int((totalItems + int64(size) - 1) / int64(size))
	}
	return &APIResponse{
		Success: true,
		Data:    data,
		Pagination: &PaginationInfo{
			CurrentPage: page,
			PageSize:    size,
			TotalItems:  totalItems,
			TotalPages:  totalPages,
		},
		Timestamp: time.Now(),
	}
}
