package domain

// PushMessage is the content of one notification fan-out.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// BatchResult summarizes delivery of one batch of push tokens.
type BatchResult struct {
	SuccessCount int
	FailureCount int
	FailedTokens []string
}
