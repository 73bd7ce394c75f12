package model

// Reply sources.
const (
	SourceEMR   = "emr"
	SourceLLM   = "llm"
	SourceError = "error"
)

// RouterResult is a direct answer produced from the record store. Context is
// a short summary kept for later follow-up questions.
type RouterResult struct {
	Intent  string `json:"intent"`
	Answer  string `json:"answer"`
	Context string `json:"context,omitempty"`
}

type ChatRequest struct {
	Message   string `json:"message" binding:"required,max=2000"`
	SessionID string `json:"session_id" binding:"omitempty,max=64"`
}

type ChatReply struct {
	Reply   string `json:"reply"`
	Source  string `json:"source"`
	Intent  string `json:"intent,omitempty"`
	Context string `json:"context,omitempty"`
}

type RouteRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}
