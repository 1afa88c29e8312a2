package types

// PageInfo contains pagination metadata for list responses.
type PageInfo struct {
	HasMore bool `json:"has_more"`
	Limit   int  `json:"limit"`
}

// ListResponse is a generic list response wrapper.
type ListResponse[T any] struct {
	Data     []T      `json:"data"`
	PageInfo PageInfo `json:"pagination"`
}

// Default and maximum page sizes for history endpoints.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)
