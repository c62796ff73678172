package persistence

import (
	"time"
)

//Vehicle is a row in the FAHRZEUG table
type Vehicle struct {
	ID            int64  `gorm:"column:FZ_ID;primaryKey" json:"id"`
	TariffClassID int    `gorm:"column:SSKL_ID" json:"tariffClassId"`
	UserID        int    `gorm:"column:NUTZER_ID" json:"userId"`
	LicensePlate  string `gorm:"column:KENNZEICHEN" json:"licensePlate"`
	VIN           string `gorm:"column:FIN" json:"vin"`
	Axles         int    `gorm:"column:ACHSEN" json:"axles"`
	Weight        int    `gorm:"column:GEWICHT" json:"weight"`
	Country       string `gorm:"column:ZULASSUNGSLAND" json:"country"`
}

//TableName maps Vehicle to the legacy table name
func (Vehicle) TableName() string {
	return "FAHRZEUG"
}

//OnBoardUnit is a device mounted in a vehicle that reports its position while driving on toll roads
type OnBoardUnit struct {
	ID        int64  `gorm:"column:FZG_ID;primaryKey" json:"id"`
	VehicleID int64  `gorm:"column:FZ_ID" json:"vehicleId"`
	Status    string `gorm:"column:STATUS" json:"status"`
}

//TableName maps OnBoardUnit to the legacy table name
func (OnBoardUnit) TableName() string {
	return "FAHRZEUGGERAT"
}

//TollCharge records a toll charged for one passage of a road segment by an on board unit
type TollCharge struct {
	ID            int       `gorm:"column:MAUT_ID;primaryKey" json:"id"`
	RoadSegmentID int       `gorm:"column:ABSCHNITTS_ID" json:"roadSegmentId"`
	OnBoardUnitID int64     `gorm:"column:FZG_ID" json:"onBoardUnitId"`
	CategoryID    int       `gorm:"column:KATEGORIE_ID" json:"categoryId"`
	PassedAt      time.Time `gorm:"column:BEFAHRUNGSDATUM" json:"passedAt"`
	Cost          float64   `gorm:"column:KOSTEN" json:"cost"`
}

//TableName maps TollCharge to the legacy table name
func (TollCharge) TableName() string {
	return "MAUTERHEBUNG"
}

//Position is a track point belonging to a toll charge
type Position struct {
	ID           int64     `gorm:"column:POSITION_ID;primaryKey" json:"id"`
	TollChargeID int       `gorm:"column:MAUT_ID" json:"tollChargeId"`
	Timestamp    time.Time `gorm:"column:ZEITPUNKT" json:"timestamp"`
	Latitude     float64   `gorm:"column:BREITE" json:"latitude"`
	Longitude    float64   `gorm:"column:LAENGE" json:"longitude"`
}

//TableName maps Position to the legacy table name
func (Position) TableName() string {
	return "POSITION"
}

//RoadSegment is a tolled road segment. Coordinates are kept in whatever textual form the schema stores them.
type RoadSegment struct {
	ID               int    `gorm:"column:ABSCHNITTS_ID;primaryKey" json:"id"`
	Length           int    `gorm:"column:LAENGE" json:"length"`
	StartCoordinate  string `gorm:"column:START_KOORDINATE" json:"startCoordinate"`
	TargetCoordinate string `gorm:"column:ZIEL_KOORDINATE" json:"targetCoordinate"`
	Name             string `gorm:"column:NAME" json:"name"`
	Type             string `gorm:"column:ABSCHNITTSTYP" json:"type"`
}

//TableName maps RoadSegment to the legacy table name
func (RoadSegment) TableName() string {
	return "MAUTABSCHNITT"
}
