package pipeline

import "wine-concierge-be/pkg/ai/router"

// QueryState flows through the concierge graph. Handlers fill Answer
// (warning text on failure, with Err kept for observability) and the final
// node copies it into Response.
type QueryState struct {
	Query    string
	Location string
	Branch   router.Branch
	Answer   string
	Err      error
	Sources  []string
	Response string
}

func (s QueryState) Failed() bool {
	return s.Err != nil
}
