package inverter

// Telemetry represents one decoded reading from the charge controller.
type Telemetry struct {
	BatteryVoltage float64 // volts
	BatteryCurrent float64 // amps, negative while discharging
	PanelVoltage   float64 // volts
	PanelPower     float64 // watts
	LoadCurrent    float64 // amps
	LoadOn         bool
	StateOfCharge  float64 // percent
	ChargeState    string
	ErrorCode      int
}

// chargeStates maps the controller's CS codes to readable states.
var chargeStates = map[int]string{
	0: "off",
	1: "low_power",
	2: "fault",
	3: "bulk",
	4: "absorption",
	5: "float",
}
