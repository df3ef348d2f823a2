package classifier

// Prediction is a single classification result.
type Prediction struct {
	Label string  // lowercase emotion label
	Score float64 // confidence in [0,1]
}

// classifyRequest is the JSON body sent to the model endpoint.
type classifyRequest struct {
	Inputs string `json:"inputs"`
}

// labelScore is one candidate label returned by the model endpoint.
// Responses are either []labelScore or [][]labelScore depending on the host.
type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// apiError is the error body returned by hosted inference endpoints.
type apiError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}
