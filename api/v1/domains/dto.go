package domains

// CreateRequest represents create subdomain request
type CreateRequest struct {
	AvailableDomainID int    `json:"availableDomainId" binding:"required"`
	Subdomain         string `json:"subdomain" binding:"required"`
	RecordType        string `json:"recordType" binding:"required"`
	Value             string `json:"value" binding:"required"`
	TTL               *int   `json:"ttl"`
	Proxied           *bool  `json:"proxied"`
}

// UpdateRequest represents update subdomain request
type UpdateRequest struct {
	ID      int     `json:"id" binding:"required"`
	Value   *string `json:"value"`
	Proxied *bool   `json:"proxied"`
}

// DeleteRequest represents delete subdomain request
type DeleteRequest struct {
	ID int `json:"id" binding:"required"`
}

// AdminListRequest represents the admin list query
type AdminListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Keyword  string `form:"keyword"`
	Status   string `form:"status"`
	UserID   *int   `form:"userId"`
}

// SetStatusRequest represents an admin status change
type SetStatusRequest struct {
	ID     int    `json:"id" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// SetValueRequest represents an admin value override
type SetValueRequest struct {
	ID    int    `json:"id" binding:"required"`
	Value string `json:"value" binding:"required"`
}
