/*
Package server implements msgpack IPC for word suggestion services.

The server speaks length-prefixed msgpack frames over stdin/stdout: each
frame is a 4-byte little-endian payload length followed by one msgpack
message. Binary framing is required because msgpack payloads may contain
newline bytes.

# IPC

Clients send request frames and receive response frames. Each request
carries an ID that the matching response echoes back; responses for
suggestion requests are delivered asynchronously and may arrive out of
request order, so clients must correlate by ID.

A suggestion request names the session it belongs to (one session per input
box). Within a session, a request supersedes all earlier ones: if a newer
request arrives while an older one is still resolving, the older response is
suppressed entirely rather than delivered late. Shard loads already running
on behalf of a suppressed request are left to finish and stay cached.

Suggestion requests look like:

	{"id": "req_001", "cmd": "suggest", "sid": "box1", "q": "the transaction ", "l": 10}

and are answered with ranked next-word candidates:

	{"id": "req_001", "s": [{"w": "commit", "wt": 3}, {"w": "rolled", "wt": 1}], "c": 2, "t": 145}

Index management requests inspect or adjust the running index:

	{"id": "ix_001", "cmd": "index", "action": "stats"}
	{"id": "ix_002", "cmd": "index", "action": "set_capacity", "capacity": 16}
	{"id": "ix_003", "cmd": "index", "action": "prewarm", "shards": [12, 69]}

Suggestion failures never produce error responses; a shard that cannot be
fetched or parsed degrades to an empty suggestion list, because suggestions
are a best-effort enhancement for the host page. Error responses are
reserved for protocol problems: undecodable frames, unknown commands,
oversized input.
*/
package server

// Request is the single envelope for all client commands.
// Cmd selects the operation: "suggest", "index" or "health".
type Request struct {
	ID        string `msgpack:"id"`
	Cmd       string `msgpack:"cmd"`
	Session   string `msgpack:"sid,omitempty"`
	Text      string `msgpack:"q,omitempty"`
	Limit     int    `msgpack:"l,omitempty"`
	MinWeight int    `msgpack:"m,omitempty"`

	// Index management fields.
	Action   string `msgpack:"action,omitempty"`   // "stats", "set_capacity", "prewarm"
	Capacity *int   `msgpack:"capacity,omitempty"` // for "set_capacity"
	Shards   []int  `msgpack:"shards,omitempty"`   // for "prewarm"
}

// SuggestionEntry is one ranked candidate in a suggest response.
type SuggestionEntry struct {
	Word   string `msgpack:"w"`
	Weight int    `msgpack:"wt"`
}

// SuggestResponse answers a suggest request.
type SuggestResponse struct {
	ID          string            `msgpack:"id"`
	Suggestions []SuggestionEntry `msgpack:"s"`
	Count       int               `msgpack:"c"`
	TimeTaken   int64             `msgpack:"t"`
}

// IndexResponse answers index management requests.
type IndexResponse struct {
	ID           string `msgpack:"id"`
	Status       string `msgpack:"status"`
	Error        string `msgpack:"error,omitempty"`
	LoadedShards []int  `msgpack:"loaded,omitempty"`
	Words        int    `msgpack:"words,omitempty"`
	Edges        int    `msgpack:"edges,omitempty"`
	Fetches      int64  `msgpack:"fetches,omitempty"`
}

// StatusResponse reports server liveness.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// ErrorResponse reports a protocol-level failure.
type ErrorResponse struct {
	ID    string `msgpack:"id,omitempty"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
