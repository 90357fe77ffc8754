package events

// Event type constants for kelindar/event.
const (
	TypeMicActivity uint32 = iota + 1
	TypeHotplug
	TypePower
	TypeSession
	TypeStatusChanged
	TypeDevicesChanged
	TypeSettingsChanged
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// PowerCode is the coarse power transition code.
type PowerCode int

// Power transition codes.
const (
	PowerSuspend PowerCode = 4
	PowerResume  PowerCode = 7
)

func (c PowerCode) String() string {
	switch c {
	case PowerSuspend:
		return "suspend"
	case PowerResume:
		return "resume"
	default:
		return "unknown"
	}
}

// SessionReason is the cause of a session change.
type SessionReason string

// Session change reasons. Only SessionUnlock and ConsoleConnect mean the
// session is usable; every other reason counts as locked.
const (
	ConsoleConnect       SessionReason = "console-connect"
	ConsoleDisconnect    SessionReason = "console-disconnect"
	RemoteConnect        SessionReason = "remote-connect"
	RemoteDisconnect     SessionReason = "remote-disconnect"
	SessionLogon         SessionReason = "session-logon"
	SessionLogoff        SessionReason = "session-logoff"
	SessionLock          SessionReason = "session-lock"
	SessionUnlock        SessionReason = "session-unlock"
	SessionRemoteControl SessionReason = "session-remote-control"
)

// Locked reports whether the reason leaves the session locked.
func (r SessionReason) Locked() bool {
	return r != SessionUnlock && r != ConsoleConnect
}

// MicActivityEvent is published when the set of capture users changes.
type MicActivityEvent struct {
	Active    bool     `json:"active" example:"true" doc:"Whether any process is capturing"`
	Users     []string `json:"users" example:"[\"firefox\"]" doc:"Processes capturing audio"`
	Timestamp string   `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for MicActivityEvent.
func (e MicActivityEvent) Type() uint32 { return TypeMicActivity }

// HotplugEvent signals that light hardware may have appeared or vanished.
type HotplugEvent struct {
	Action    string `json:"action" example:"add" doc:"Kernel action of the last event in the batch"`
	Subsystem string `json:"subsystem" example:"hidraw" doc:"Kernel subsystem"`
	DevName   string `json:"dev_name,omitempty" example:"hidraw3" doc:"Device node name"`
	Batched   int    `json:"batched" example:"3" doc:"Kernel events coalesced into this one"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for HotplugEvent.
func (e HotplugEvent) Type() uint32 { return TypeHotplug }

// PowerEvent signals a suspend or resume transition.
// On suspend, Release, when set, must be called once the lights are off.
type PowerEvent struct {
	Code      PowerCode `json:"code" example:"4" doc:"4 = entering suspend, 7 = resumed"`
	Timestamp string    `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
	Release   func()    `json:"-"`
}

// Type returns the event type identifier for PowerEvent.
func (e PowerEvent) Type() uint32 { return TypePower }

// SessionEvent signals a session lock state change.
type SessionEvent struct {
	Reason    SessionReason `json:"reason" example:"session-lock" doc:"Reason for the change"`
	Timestamp string        `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionEvent.
func (e SessionEvent) Type() uint32 { return TypeSession }

// StatusChangedEvent is published after a status has been rendered.
type StatusChangedEvent struct {
	Status        string `json:"status" example:"in-use" doc:"Rendered status"`
	Color         string `json:"color" example:"#FF0000" doc:"Color for the status"`
	Effect        string `json:"effect" example:"solid" doc:"In-use effect"`
	Reason        string `json:"reason" example:"mic" doc:"What triggered the evaluation"`
	MicInUse      bool   `json:"mic_in_use" doc:"Microphone capture state used"`
	SessionLocked bool   `json:"session_locked" doc:"Session lock state used"`
	Succeeded     int    `json:"succeeded" doc:"Devices updated"`
	Failed        int    `json:"failed" doc:"Devices that failed"`
	Timestamp     string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StatusChangedEvent.
func (e StatusChangedEvent) Type() uint32 { return TypeStatusChanged }

// DevicesChangedEvent is published after a rescan.
type DevicesChangedEvent struct {
	Count       int    `json:"count" example:"1" doc:"Connected lights"`
	Description string `json:"description" example:"1 light connected." doc:"Display string"`
	Timestamp   string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DevicesChangedEvent.
func (e DevicesChangedEvent) Type() uint32 { return TypeDevicesChanged }

// SettingsChangedEvent is published when the effect settings change.
type SettingsChangedEvent struct {
	Source    string `json:"source" example:"api" doc:"api or file"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SettingsChangedEvent.
func (e SettingsChangedEvent) Type() uint32 { return TypeSettingsChanged }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
