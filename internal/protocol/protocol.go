package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeState   = "STATE"
	TypeCmd     = "CMD"
	TypeAck     = "ACK"
)

// Command ops, matching the public mutations of the engine one to one.
const (
	OpSpawnFood      = "SPAWN_FOOD"
	OpTogglePause    = "TOGGLE_PAUSE"
	OpSetSpeed       = "SET_SPEED"
	OpResize         = "RESIZE"
	OpSelectFish     = "SELECT_FISH"
	OpRenameFish     = "RENAME_FISH"
	OpDiscardFish    = "DISCARD_FISH"
	OpRemoveCorpse   = "REMOVE_CORPSE"
	OpInstallFilter  = "INSTALL_FILTER"
	OpToggleFilter   = "TOGGLE_FILTER"
	OpMaintainFilter = "MAINTAIN_FILTER"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
