package events

//OnBoardUnitStatusChanged is an event that notifies that an on board unit has reported a new status
type OnBoardUnitStatusChanged struct {
	DeviceID  int64  `json:"deviceId"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (evt *OnBoardUnitStatusChanged) TopicName() string {
	return "events-onboardunitstatuschanged"
}

func (evt *OnBoardUnitStatusChanged) ContentType() string {
	return "application/json"
}

//VehicleDeregistered is an event that notifies that a vehicle has left the toll system and
//should be removed together with its recorded charges
type VehicleDeregistered struct {
	VehicleID int64  `json:"vehicleId"`
	Timestamp string `json:"timestamp"`
}

func (evt *VehicleDeregistered) TopicName() string {
	return "events-vehiclederegistered"
}

func (evt *VehicleDeregistered) ContentType() string {
	return "application/json"
}
