package messaging

import (
	"errors"
	"io/ioutil"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"

	"github.com/iot-for-tillgenglighet/api-tollmanagement/internal/pkg/persistence"
)

type statusUpdate struct {
	id     int64
	status string
}

type fakeDatastore struct {
	updates  []statusUpdate
	deleted  []int64
	failWith error
}

func (f *fakeDatastore) GetStatusForOnBoardUnit(int64) (string, bool, error) { return "", false, nil }
func (f *fakeDatastore) GetUserNumber(int) (int, error)                      { return 0, nil }
func (f *fakeDatastore) RegisterVehicle(persistence.Vehicle) error            { return nil }
func (f *fakeDatastore) ListRoadSegments(string) ([]persistence.RoadSegment, error) {
	return []persistence.RoadSegment{}, nil
}

func (f *fakeDatastore) UpdateOnBoardUnitStatus(id int64, status string) error {
	f.updates = append(f.updates, statusUpdate{id, status})
	return f.failWith
}

func (f *fakeDatastore) DeleteVehicle(id int64) error {
	f.deleted = append(f.deleted, id)
	return f.failWith
}

func quietLogger() log.FieldLogger {
	logger := log.New()
	logger.SetOutput(ioutil.Discard)
	return logger
}

func TestStatusChangedUpdatesStore(t *testing.T) {
	db := &fakeDatastore{}
	receiver := CreateOnBoardUnitStatusChangedReceiver(db, quietLogger())

	receiver(amqp.Delivery{Body: []byte(`{"deviceId":100,"status":"blocked","timestamp":"2026-03-01T08:30:00Z"}`)})

	assert.Equal(t, []statusUpdate{{100, "blocked"}}, db.updates)
}

func TestMalformedStatusChangedIsDropped(t *testing.T) {
	db := &fakeDatastore{}
	receiver := CreateOnBoardUnitStatusChangedReceiver(db, quietLogger())

	receiver(amqp.Delivery{Body: []byte(`{"deviceId":`)})
	receiver(amqp.Delivery{Body: []byte(`{"status":"active"}`)})

	assert.Empty(t, db.updates)
}

func TestStoreFailureDoesNotPanic(t *testing.T) {
	db := &fakeDatastore{failWith: errors.New("database is down")}
	receiver := CreateOnBoardUnitStatusChangedReceiver(db, quietLogger())

	assert.NotPanics(t, func() {
		receiver(amqp.Delivery{Body: []byte(`{"deviceId":100,"status":"active"}`)})
	})
	assert.Len(t, db.updates, 1)
}

func TestVehicleDeregisteredDeletesVehicle(t *testing.T) {
	db := &fakeDatastore{}
	receiver := CreateVehicleDeregisteredReceiver(db, quietLogger())

	receiver(amqp.Delivery{Body: []byte(`{"vehicleId":7,"timestamp":"2026-03-01T08:30:00Z"}`)})
	receiver(amqp.Delivery{Body: []byte(`{}`)})

	assert.Equal(t, []int64{7}, db.deleted)
}
