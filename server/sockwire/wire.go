package sockwire

import "github.com/tuannm99/sockdb/internal/engine"

// Request is a single client command. Exactly one of Query or Subscribe is
// set: Query carries a SQL statement or a dot meta command, Subscribe names a
// table whose change notices the client wants pushed on this connection.
type Request struct {
	ID        uint64 `json:"id"`
	Query     string `json:"query,omitempty"`
	Subscribe string `json:"subscribe,omitempty"`
}

// Response answers the request with the matching ID. Frames with ID 0 are
// unsolicited change notices for subscribed tables.
type Response struct {
	ID     uint64       `json:"id"`
	View   *engine.View `json:"view,omitempty"`
	Error  string       `json:"error,omitempty"`
	Table  string       `json:"table,omitempty"`
	Notice string       `json:"notice,omitempty"`
}
