package domain

// StageView is the sidebar representation of a stage.
type StageView struct {
	ID      StageID `json:"id"`
	Label   string  `json:"label"`
	Icon    string  `json:"icon"`
	Current bool    `json:"current"`
	Pending bool    `json:"pending"`
	HasData bool    `json:"has_data"`
}

// SessionView is the host-facing projection of a State. It omits the
// session credential and raw upload bytes.
type SessionView struct {
	SessionID    string          `json:"session_id"`
	Role         Role            `json:"role"`
	CurrentStage StageID         `json:"current_stage"`
	Status       ExecutionStatus `json:"status"`
	Progress     float64         `json:"progress"`
	Stages       []StageView     `json:"stages"`
	Turns        []Turn          `json:"turns"`
}
