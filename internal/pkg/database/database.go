package database

import (
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/iot-for-tillgenglighet/api-tollmanagement/internal/pkg/persistence"
)

//Datastore is an interface that is used to inject the database into different handlers to improve testability
type Datastore interface {
	GetStatusForOnBoardUnit(deviceOrVehicleID int64) (string, bool, error)
	GetUserNumber(chargeID int) (int, error)
	RegisterVehicle(vehicle persistence.Vehicle) error
	UpdateOnBoardUnitStatus(deviceOrVehicleID int64, status string) error
	DeleteVehicle(vehicleID int64) error
	ListRoadSegments(segmentType string) ([]persistence.RoadSegment, error)
}

// The device table is keyed by FZG_ID but historically also looked up by the
// vehicle id in FZ_ID. Statements touching devices match either column.
const (
	sqlStatusForOnBoardUnit = `SELECT LOWER(TRIM(STATUS)) AS S FROM FAHRZEUGGERAT WHERE FZ_ID = ? OR FZG_ID = ?`

	sqlUserNumber = `
		SELECT f.NUTZER_ID
		FROM   MAUTERHEBUNG   m
		JOIN   FAHRZEUGGERAT  g ON g.FZG_ID = m.FZG_ID
		JOIN   FAHRZEUG       f ON f.FZ_ID  = g.FZ_ID
		WHERE  m.MAUT_ID = ?`

	sqlRegisterVehicle = `
		INSERT INTO FAHRZEUG
			(FZ_ID, SSKL_ID, NUTZER_ID, KENNZEICHEN, FIN, ACHSEN, GEWICHT, ZULASSUNGSLAND)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	sqlUpdateOnBoardUnitStatus = `UPDATE FAHRZEUGGERAT SET STATUS = ? WHERE FZ_ID = ? OR FZG_ID = ?`

	sqlDevicesOfVehicle = `SELECT FZG_ID FROM FAHRZEUGGERAT WHERE FZ_ID = ? OR FZG_ID = ?`

	sqlDeletePositions   = `DELETE FROM POSITION WHERE MAUT_ID IN (SELECT MAUT_ID FROM MAUTERHEBUNG WHERE FZG_ID IN (` + sqlDevicesOfVehicle + `))`
	sqlDeleteTollCharges = `DELETE FROM MAUTERHEBUNG WHERE FZG_ID IN (` + sqlDevicesOfVehicle + `)`
	sqlDeleteDevices     = `DELETE FROM FAHRZEUGGERAT WHERE FZ_ID = ? OR FZG_ID = ?`
	sqlDeleteVehicle     = `DELETE FROM FAHRZEUG WHERE FZ_ID = ?`

	sqlRoadSegmentsByType = `
		SELECT ABSCHNITTS_ID,
		       LAENGE,
		       START_KOORDINATE,
		       ZIEL_KOORDINATE,
		       NAME,
		       ABSCHNITTSTYP
		FROM   MAUTABSCHNITT
		WHERE  UPPER(ABSCHNITTSTYP) = UPPER(?)
		ORDER  BY ABSCHNITTS_ID`
)

//TollManagementStore runs the toll management queries against a connection that is owned by
//the caller. It never opens, closes or pools connections itself.
type TollManagementStore struct {
	db  *gorm.DB
	log log.FieldLogger
}

//NewTollManagementStore creates a store without a connection. SetConnection must be called
//before any query is made.
func NewTollManagementStore(logger log.FieldLogger) *TollManagementStore {
	return &TollManagementStore{log: logger}
}

//SetConnection hands a live database handle to the store
func (s *TollManagementStore) SetConnection(db *gorm.DB) {
	s.db = db
}

//WithConnection returns a copy of the store that runs its statements on db, e.g. a transaction
//started by the caller
func (s *TollManagementStore) WithConnection(db *gorm.DB) *TollManagementStore {
	return &TollManagementStore{db: db, log: s.log}
}

func (s *TollManagementStore) connection() (*gorm.DB, error) {
	if s.db == nil {
		return nil, ErrConnectionNotSet
	}
	return s.db, nil
}

func (s *TollManagementStore) finish(op, key string, start time.Time, err error) {
	observeOperation(op, start, err)

	logger := s.log.WithFields(log.Fields{"operation": op, "key": key})
	if err != nil {
		logger.WithError(err).Error("store operation failed")
		return
	}
	logger.Debugf("store operation completed in %s", time.Since(start))
}

//GetStatusForOnBoardUnit returns the lower cased and trimmed status of the on board unit matching
//the id as either device or vehicle id. found is false if there is no such unit or it has no status.
func (s *TollManagementStore) GetStatusForOnBoardUnit(deviceOrVehicleID int64) (status string, found bool, err error) {
	const op = "getStatusForOnBoardUnit"
	key := fmt.Sprintf("FZ_ID=%d", deviceOrVehicleID)
	defer func(start time.Time) { s.finish(op, key, start, err) }(time.Now())

	db, err := s.connection()
	if err != nil {
		return "", false, newDataAccessError(op, key, err)
	}

	rows, err := db.Raw(sqlStatusForOnBoardUnit, deviceOrVehicleID, deviceOrVehicleID).Rows()
	if err != nil {
		return "", false, newDataAccessError(op, key, err)
	}
	defer rows.Close()

	if rows.Next() {
		var value sql.NullString
		if err = rows.Scan(&value); err != nil {
			return "", false, newDataAccessError(op, key, err)
		}
		return value.String, value.Valid, nil
	}

	if err = rows.Err(); err != nil {
		return "", false, newDataAccessError(op, key, err)
	}

	return "", false, nil
}

//GetUserNumber follows a toll charge to its on board unit and vehicle and returns the user
//owning that vehicle, or 0 if the chain is incomplete
func (s *TollManagementStore) GetUserNumber(chargeID int) (userID int, err error) {
	const op = "getUserNumber"
	key := fmt.Sprintf("MAUT_ID=%d", chargeID)
	defer func(start time.Time) { s.finish(op, key, start, err) }(time.Now())

	db, err := s.connection()
	if err != nil {
		return 0, newDataAccessError(op, key, err)
	}

	rows, err := db.Raw(sqlUserNumber, chargeID).Rows()
	if err != nil {
		return 0, newDataAccessError(op, key, err)
	}
	defer rows.Close()

	if rows.Next() {
		var user sql.NullInt64
		if err = rows.Scan(&user); err != nil {
			return 0, newDataAccessError(op, key, err)
		}
		return int(user.Int64), nil
	}

	if err = rows.Err(); err != nil {
		return 0, newDataAccessError(op, key, err)
	}

	return 0, nil
}

//RegisterVehicle inserts the vehicle as is. Duplicates and invalid values are left for the
//database constraints to reject.
func (s *TollManagementStore) RegisterVehicle(v persistence.Vehicle) (err error) {
	const op = "registerVehicle"
	key := fmt.Sprintf("FZ_ID=%d", v.ID)
	defer func(start time.Time) { s.finish(op, key, start, err) }(time.Now())

	db, err := s.connection()
	if err != nil {
		return newDataAccessError(op, key, err)
	}

	err = db.Exec(sqlRegisterVehicle,
		v.ID, v.TariffClassID, v.UserID, v.LicensePlate, v.VIN, v.Axles, v.Weight, v.Country,
	).Error
	if err != nil {
		return newDataAccessError(op, key, err)
	}

	return nil
}

//UpdateOnBoardUnitStatus stores status for every unit matching the id as either device or vehicle
//id. Matching no unit at all is not an error.
func (s *TollManagementStore) UpdateOnBoardUnitStatus(deviceOrVehicleID int64, status string) (err error) {
	const op = "updateOnBoardUnitStatus"
	key := fmt.Sprintf("FZ_ID=%d", deviceOrVehicleID)
	defer func(start time.Time) { s.finish(op, key, start, err) }(time.Now())

	db, err := s.connection()
	if err != nil {
		return newDataAccessError(op, key, err)
	}

	if err = db.Exec(sqlUpdateOnBoardUnitStatus, status, deviceOrVehicleID, deviceOrVehicleID).Error; err != nil {
		return newDataAccessError(op, key, err)
	}

	return nil
}

//DeleteVehicle removes a vehicle together with its positions, toll charges and on board units.
//The four statements are not wrapped in a transaction: if one fails, the ones before it stay
//applied. Bind the store to a transaction with WithConnection when that matters.
func (s *TollManagementStore) DeleteVehicle(vehicleID int64) (err error) {
	const op = "deleteVehicle"
	key := fmt.Sprintf("FZ_ID=%d", vehicleID)
	defer func(start time.Time) { s.finish(op, key, start, err) }(time.Now())

	db, err := s.connection()
	if err != nil {
		return newDataAccessError(op, key, err)
	}

	steps := []struct {
		table string
		stmt  string
		args  []interface{}
	}{
		{"POSITION", sqlDeletePositions, []interface{}{vehicleID, vehicleID}},
		{"MAUTERHEBUNG", sqlDeleteTollCharges, []interface{}{vehicleID, vehicleID}},
		{"FAHRZEUGGERAT", sqlDeleteDevices, []interface{}{vehicleID, vehicleID}},
		{"FAHRZEUG", sqlDeleteVehicle, []interface{}{vehicleID}},
	}

	for _, step := range steps {
		result := db.Exec(step.stmt, step.args...)
		if result.Error != nil {
			return newDataAccessError(op, key, fmt.Errorf("delete from %s: %w", step.table, result.Error))
		}
		s.log.Debugf("deleted %d rows from %s for vehicle %d", result.RowsAffected, step.table, vehicleID)
	}

	return nil
}

//ListRoadSegments returns all road segments of the given type, compared case insensitively,
//ordered by segment id. The returned slice is never nil.
func (s *TollManagementStore) ListRoadSegments(segmentType string) (segments []persistence.RoadSegment, err error) {
	const op = "listRoadSegments"
	key := fmt.Sprintf("type=%s", segmentType)
	defer func(start time.Time) { s.finish(op, key, start, err) }(time.Now())

	db, err := s.connection()
	if err != nil {
		return nil, newDataAccessError(op, key, err)
	}

	rows, err := db.Raw(sqlRoadSegmentsByType, segmentType).Rows()
	if err != nil {
		return nil, newDataAccessError(op, key, err)
	}
	defer rows.Close()

	segments = []persistence.RoadSegment{}

	for rows.Next() {
		var (
			seg                       persistence.RoadSegment
			start, target, name, kind sql.NullString
		)
		if err = rows.Scan(&seg.ID, &seg.Length, &start, &target, &name, &kind); err != nil {
			return nil, newDataAccessError(op, key, err)
		}

		seg.StartCoordinate = start.String
		seg.TargetCoordinate = target.String
		seg.Name = name.String
		seg.Type = kind.String

		segments = append(segments, seg)
	}

	if err = rows.Err(); err != nil {
		return nil, newDataAccessError(op, key, err)
	}

	return segments, nil
}
