package codex

// PathResponses is the Codex backend-api endpoint, shared by streaming and
// non-streaming calls: the upstream always streams, the gateway buffers it
// when a client asked for a non-streaming response.
const PathResponses = "/responses"
