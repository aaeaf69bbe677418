package client

const (
	apiPrefix = "/api"

	// Chat endpoints
	endpointChat       = apiPrefix + "/chat"        // POST, chunked text/plain
	endpointChatSimple = apiPrefix + "/chat/simple" // POST, JSON

	// Health endpoints
	endpointHealth         = apiPrefix + "/health"
	endpointHealthDetailed = apiPrefix + "/health/detailed"
)
