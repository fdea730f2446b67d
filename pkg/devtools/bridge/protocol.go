package bridge

import (
	"encoding/json"
	"fmt"
)

// Outbound frame types.
const (
	frameInit    = "init"    // snapshot sent on connect
	frameState   = "state"   // one frame per recorded commit
	frameHistory = "history" // reply to an export command
	frameError   = "error"
)

// Inbound command types.
const (
	cmdJump   = "jump"
	cmdImport = "import"
	cmdExport = "export"
)

// frame is an outbound message to the inspector.
type frame struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq,omitempty"`
	Action  string          `json:"action,omitempty"`
	State   json.RawMessage `json:"state,omitempty"`
	Entries []entryFrame    `json:"entries,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// entryFrame is one history entry in a history frame.
type entryFrame struct {
	Seq    uint64          `json:"seq"`
	Action string          `json:"action"`
	State  json.RawMessage `json:"state"`
}

// command is an inbound message from the inspector.
type command struct {
	Type  string          `json:"type"`
	Seq   uint64          `json:"seq,omitempty"`
	State json.RawMessage `json:"state,omitempty"`
}

func decodeCommand(data []byte) (command, error) {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return command{}, fmt.Errorf("bridge: malformed command: %w", err)
	}
	if cmd.Type == "" {
		return command{}, fmt.Errorf("bridge: command missing type")
	}
	return cmd, nil
}
