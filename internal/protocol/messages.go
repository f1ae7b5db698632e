package protocol

// HELLO (panel -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	PanelName       string            `json:"panel_name"`
	Capabilities    HelloCapabilities `json:"capabilities,omitempty"`
}

type HelloCapabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (server -> panel)
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	PanelID         string     `json:"panel_id"`
	TankParams      TankParams `json:"tank_params"`
	SimTimeSec      float64    `json:"sim_time_sec"`
}

type TankParams struct {
	TankID     string  `json:"tank_id"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	TickRateHz int     `json:"tick_rate_hz"`
	Seed       int64   `json:"seed"`
}

// STATE (server -> panel): the full render view, latest wins.
type StateMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	SimTimeSec      float64       `json:"sim_time_sec"`
	SpeedMultiplier float64       `json:"speed_multiplier"`
	Paused          bool          `json:"paused"`
	Width           float64       `json:"width"`
	Height          float64       `json:"height"`
	SelectedFishID  int64         `json:"selected_fish_id,omitempty"`
	Fish            []FishView    `json:"fish"`
	Food            []FoodView    `json:"food"`
	Eggs            []EggView     `json:"eggs"`
	Play            []PlayView    `json:"play_sessions"`
	Bubbles         []BubbleView  `json:"bubbles,omitempty"`
	Water           WaterView     `json:"water"`
	Events          []EventRecord `json:"events,omitempty"`
}

type FishView struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name,omitempty"`
	Pos         [2]float64 `json:"pos"`
	Heading     float64    `json:"heading"`
	Size        float64    `json:"size"`
	HueDeg      float64    `json:"hue_deg"`
	Stage       string     `json:"stage"`
	Sex         string     `json:"sex"`
	Hunger      string     `json:"hunger"`
	Energy      float64    `json:"energy"`
	Wellbeing   float64    `json:"wellbeing"`
	Alive       bool       `json:"alive"`
	DeathReason string     `json:"death_reason,omitempty"`
	ReproPhase  string     `json:"repro_phase,omitempty"`
	PlayRole    string     `json:"play_role,omitempty"`
}

type FoodView struct {
	ID     int64      `json:"id"`
	Pos    [2]float64 `json:"pos"`
	Amount float64    `json:"amount"`
	TTLSec float64    `json:"ttl_sec"`
}

type EggView struct {
	ID          int64      `json:"id"`
	Pos         [2]float64 `json:"pos"`
	HatchDueSec float64    `json:"hatch_due_sec"`
}

type PlayView struct {
	ID        int64   `json:"id"`
	RunnerID  int64   `json:"runner_id"`
	ChaserIDs []int64 `json:"chaser_ids"`
}

type BubbleView struct {
	Pos [2]float64 `json:"pos"`
}

type WaterView struct {
	Hygiene float64    `json:"hygiene"`
	Dirt    float64    `json:"dirt"`
	Filter  FilterView `json:"filter"`
}

type FilterView struct {
	Unlocked  bool    `json:"unlocked"`
	Installed bool    `json:"installed"`
	Enabled   bool    `json:"enabled"`
	Health    float64 `json:"health"`
	Phase     string  `json:"phase"`
}

type EventRecord struct {
	SimTimeSec float64        `json:"sim_time_sec"`
	EventType  string         `json:"event_type"`
	Data       map[string]any `json:"data,omitempty"`
}

// CMD (panel -> server). Op selects which args are meaningful; the server
// ignores the rest.
type CmdMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	CmdID           string  `json:"cmd_id,omitempty"`
	Op              string  `json:"op"`
	FishID          int64   `json:"fish_id,omitempty"`
	Name            string  `json:"name,omitempty"`
	X               float64 `json:"x,omitempty"`
	Y               float64 `json:"y,omitempty"`
	Amount          float64 `json:"amount,omitempty"`
	TTLSec          float64 `json:"ttl_sec,omitempty"`
	Speed           float64 `json:"speed,omitempty"`
	Width           float64 `json:"width,omitempty"`
	Height          float64 `json:"height,omitempty"`
}

// ACK (server -> panel): the guarded-transition result of one CMD.
type AckMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	AckFor          string  `json:"ack_for,omitempty"`
	Op              string  `json:"op"`
	Accepted        bool    `json:"accepted"`
	Code            string  `json:"code,omitempty"`
	Message         string  `json:"message,omitempty"`
	SimTimeSec      float64 `json:"sim_time_sec"`
}
