package messaging

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/iot-for-tillgenglighet/api-tollmanagement/internal/pkg/database"
	"github.com/iot-for-tillgenglighet/api-tollmanagement/internal/pkg/messaging/events"
	"github.com/iot-for-tillgenglighet/messaging-golang/pkg/messaging"
	"github.com/streadway/amqp"
)

//CreateOnBoardUnitStatusChangedReceiver is a closure that takes a datastore and applies incoming
//status changes to it
func CreateOnBoardUnitStatusChangedReceiver(db database.Datastore, logger log.FieldLogger) messaging.TopicMessageHandler {
	return func(msg amqp.Delivery) {
		logger.Info("Message received from topic: " + string(msg.Body))

		evt := &events.OnBoardUnitStatusChanged{}
		if err := json.Unmarshal(msg.Body, evt); err != nil {
			logger.Errorf("Failed to unmarshal message: %s", err.Error())
			return
		}

		if evt.DeviceID == 0 || evt.Status == "" {
			logger.Errorf("Ignoring status change without device id or status: %s", string(msg.Body))
			return
		}

		if err := db.UpdateOnBoardUnitStatus(evt.DeviceID, evt.Status); err != nil {
			logger.Error(err.Error())
			return
		}
	}
}

//CreateVehicleDeregisteredReceiver is a closure that takes a datastore and deletes deregistered
//vehicles from it
func CreateVehicleDeregisteredReceiver(db database.Datastore, logger log.FieldLogger) messaging.TopicMessageHandler {
	return func(msg amqp.Delivery) {
		logger.Info("Message received from topic: " + string(msg.Body))

		evt := &events.VehicleDeregistered{}
		if err := json.Unmarshal(msg.Body, evt); err != nil {
			logger.Errorf("Failed to unmarshal message: %s", err.Error())
			return
		}

		if evt.VehicleID == 0 {
			logger.Errorf("Ignoring deregistration without vehicle id: %s", string(msg.Body))
			return
		}

		if err := db.DeleteVehicle(evt.VehicleID); err != nil {
			logger.Error(err.Error())
			return
		}
	}
}

//RegisterReceivers connects to the message broker and registers the topic receivers for db.
//The returned context must be closed by the caller.
func RegisterReceivers(serviceName string, db database.Datastore, logger log.FieldLogger) (*messaging.Context, error) {
	config := messaging.LoadConfiguration(serviceName)

	messenger, err := messaging.Initialize(config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize messaging: %w", err)
	}

	messenger.RegisterTopicMessageHandler((&events.OnBoardUnitStatusChanged{}).TopicName(), CreateOnBoardUnitStatusChangedReceiver(db, logger))
	messenger.RegisterTopicMessageHandler((&events.VehicleDeregistered{}).TopicName(), CreateVehicleDeregisteredReceiver(db, logger))

	return messenger, nil
}
