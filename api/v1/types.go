package apiv1

// Page is one window of a list call.
type Page struct {
	Items []any `json:"items"`

	// NextCursor continues the listing; empty means the listing is exhausted.
	NextCursor string `json:"next_cursor,omitempty"`

	// Total is the number of matching items at the time the page was served.
	Total int `json:"total"`
}

// More reports whether another page is available.
func (p *Page) More() bool {
	return p.NextCursor != ""
}

// MethodInfo describes one router operation.
type MethodInfo struct {
	Name        string   `json:"name"`
	Paged       bool     `json:"paged"`
	Permission  string   `json:"permission,omitempty"`
	Description string   `json:"description,omitempty"`
	Args        []string `json:"args,omitempty"`
}

// CallRequest is the HTTP body of POST /v1/call/{method}.
type CallRequest struct {
	Args     map[string]any `json:"args,omitempty"`
	Cursor   string         `json:"cursor,omitempty"`
	PageSize int            `json:"page_size,omitempty"`
}

// Response is the HTTP envelope for every reply.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Details   string `json:"details,omitempty"`

	// Paged is set when Data holds a Page.
	Paged bool `json:"paged,omitempty"`
	Data  any  `json:"data,omitempty"`
}

// CodeOK is the envelope code of successful replies.
const CodeOK = "OK"
