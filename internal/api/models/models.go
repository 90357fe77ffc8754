package models

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.23.0" doc:"Go compiler version"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Status models
type StatusData struct {
	Status        string `json:"status" example:"in-use" doc:"Last rendered status (not-in-use, in-use, locked)"`
	Applied       bool   `json:"applied" doc:"Whether any status has been rendered yet"`
	State         string `json:"state" example:"solid" doc:"Light state (off, solid, blinking)"`
	Color         string `json:"color" example:"#FF0000" doc:"Color for the current status"`
	Effect        string `json:"effect" example:"solid" doc:"In-use effect (solid, blink, wave)"`
	MicInUse      bool   `json:"mic_in_use" doc:"Whether a process is capturing audio"`
	SessionLocked bool   `json:"session_locked" doc:"Whether the session is locked"`
	Suspended     bool   `json:"suspended" doc:"Whether the host is entering suspend"`
	LastReason    string `json:"last_reason,omitempty" example:"mic" doc:"What triggered the last evaluation"`
	LastEvaluated string `json:"last_evaluated,omitempty" example:"2 seconds ago" doc:"When the status was last rendered"`
	Devices       int    `json:"devices" example:"1" doc:"Connected lights"`
	Description   string `json:"description" example:"1 light connected." doc:"Connected lights display string"`
}

type StatusResponse struct {
	Body StatusData
}

type StatusActionInput struct {
	Action string `path:"action" enum:"in-use,not-in-use,locked,off,reevaluate" doc:"Status to force, off, or reevaluate"`
}

type BroadcastData struct {
	Action    string `json:"action" example:"in-use" doc:"Action performed"`
	Succeeded int    `json:"succeeded" example:"1" doc:"Devices updated"`
	Failed    int    `json:"failed" example:"0" doc:"Devices that failed"`
}

type BroadcastResponse struct {
	Body BroadcastData
}

// Settings models
type ColorsData struct {
	InUse    string `json:"in_use" example:"#FF0000" doc:"Color while the microphone is in use"`
	NotInUse string `json:"not_in_use" example:"#00BE00" doc:"Color while the microphone is idle"`
	Locked   string `json:"locked" example:"#FFFF00" doc:"Color while the session is locked"`
}

type EffectsData struct {
	Blink bool `json:"blink" doc:"Re-assert the in-use color with a blink every 3 seconds"`
	Wave  bool `json:"wave" doc:"Play a wave when the microphone becomes in use"`
}

type SettingsData struct {
	Colors  ColorsData  `json:"colors"`
	Effects EffectsData `json:"effects"`
}

type SettingsResponse struct {
	Body SettingsData
}

type SettingsPatchData struct {
	InUse    *string `json:"in_use,omitempty" pattern:"^#?[0-9A-Fa-f]{6}$" example:"#FF0000" doc:"Color while the microphone is in use"`
	NotInUse *string `json:"not_in_use,omitempty" pattern:"^#?[0-9A-Fa-f]{6}$" example:"#00BE00" doc:"Color while the microphone is idle"`
	Locked   *string `json:"locked,omitempty" pattern:"^#?[0-9A-Fa-f]{6}$" example:"#FFFF00" doc:"Color while the session is locked"`
	Blink    *bool   `json:"blink,omitempty" doc:"Enable the blink effect"`
	Wave     *bool   `json:"wave,omitempty" doc:"Enable the wave effect"`
}

type SettingsPatchRequest struct {
	Body SettingsPatchData
}

// Device models
type DeviceData struct {
	Family string `json:"family" example:"luxafor" doc:"Hardware family"`
	Name   string `json:"name" example:"hidraw3" doc:"Device name within the family"`
}

type DeviceListData struct {
	Devices     []DeviceData `json:"devices" doc:"Connected lights"`
	Count       int          `json:"count" example:"1" doc:"Number of connected lights"`
	Description string       `json:"description" example:"1 light connected." doc:"Display string"`
	LastScan    string       `json:"last_scan,omitempty" example:"5 minutes ago" doc:"When lights were last enumerated"`
}

type DeviceListResponse struct {
	Body DeviceListData
}

type RescanData struct {
	Count    int            `json:"count" example:"2" doc:"Lights found"`
	Families map[string]int `json:"families" doc:"Lights found per family"`
	Error    string         `json:"error,omitempty" doc:"Families that failed to enumerate"`
}

type RescanResponse struct {
	Body RescanData
}

// Log stream models
type LogStreamInput struct {
	Since uint64 `query:"since" example:"120" doc:"Only replay entries after this sequence number"`
}

// Log level models
type LogLevelsData struct {
	Global  string            `json:"global" example:"info" doc:"Level followed by modules without an override"`
	Modules map[string]string `json:"modules" doc:"Effective level per module"`
}

type LogLevelsResponse struct {
	Body LogLevelsData
}

type SetLogLevelRequest struct {
	Module string `path:"module" example:"led" doc:"Module name, or global"`
	Body   struct {
		Level string `json:"level" enum:"debug,info,warn,error" example:"debug" doc:"New level"`
	}
}
