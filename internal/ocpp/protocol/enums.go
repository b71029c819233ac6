package protocol

// Message type ids in the OCPP-J envelope.
const (
	MessageTypeCall       = 2
	MessageTypeCallResult = 3
	MessageTypeCallError  = 4
)

// Action is one of the charge-point-initiated operations the gateway serves.
type Action string

const (
	ActionBootNotification   Action = "BootNotification"
	ActionHeartbeat          Action = "Heartbeat"
	ActionStatusNotification Action = "StatusNotification"
	ActionAuthorize          Action = "Authorize"
	ActionStartTransaction   Action = "StartTransaction"
	ActionMeterValues        Action = "MeterValues"
	ActionStopTransaction    Action = "StopTransaction"
)

// Actions is the closed set of supported actions. Names outside this set are
// rejected at the routing boundary.
var Actions = map[string]Action{
	string(ActionBootNotification):   ActionBootNotification,
	string(ActionHeartbeat):          ActionHeartbeat,
	string(ActionStatusNotification): ActionStatusNotification,
	string(ActionAuthorize):          ActionAuthorize,
	string(ActionStartTransaction):   ActionStartTransaction,
	string(ActionMeterValues):        ActionMeterValues,
	string(ActionStopTransaction):    ActionStopTransaction,
}

// Authorization outcomes sent in idTagInfo.
const (
	AuthAccepted = "Accepted"
	AuthBlocked  = "Blocked"
)

// Registration status for BootNotification.
const (
	RegistrationAccepted = "Accepted"
)
