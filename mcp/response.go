package mcp

import (
	"encoding/json"
	"fmt"
)

// ToolResponse represents the response from a tool
type ToolResponse struct {
	Content           []ToolContent `json:"content"`
	StructuredContent interface{}   `json:"structuredContent,omitempty"`
}

// NewToolResponseMulti concatenates content. The last structured content wins.
func NewToolResponseMulti(responses ...*ToolResponse) *ToolResponse {
	var allContent []ToolContent
	var structuredContent interface{}

	for _, resp := range responses {
		if resp.Content != nil {
			allContent = append(allContent, resp.Content...)
		}
		if resp.StructuredContent != nil {
			structuredContent = resp.StructuredContent
		}
	}

	return &ToolResponse{
		Content:           allContent,
		StructuredContent: structuredContent,
	}
}

func NewToolResponseText(text string) *ToolResponse {
	return &ToolResponse{Content: []ToolContent{{Type: "text", Text: text}}}
}

func NewToolResponseJSON(data interface{}) *ToolResponse {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return &ToolResponse{Content: []ToolContent{{Type: "text", Text: fmt.Sprintf("Error marshaling data: %v", err)}}}
	}
	return NewToolResponseText(string(jsonData))
}

func NewToolResponseStructured(data interface{}) *ToolResponse {
	return &ToolResponse{
		StructuredContent: data,
	}
}

// NewToolResponseJSONStructured returns data both as JSON text, for clients
// that only read content, and as structured content.
func NewToolResponseJSONStructured(data interface{}) *ToolResponse {
	return NewToolResponseMulti(NewToolResponseJSON(data), NewToolResponseStructured(data))
}

func NewResourceResponseText(uri, text, mimeType string) *ResourceResponse {
	return &ResourceResponse{
		Contents: []ResourceContent{{
			URI:      uri,
			Text:     text,
			MimeType: mimeType,
		}},
	}
}
