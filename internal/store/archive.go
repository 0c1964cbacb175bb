package store

import (
	"context"
	"time"

	"github.com/asgard/sentinel/internal/platform/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// sensorArchiveCollection holds raw per-sensor readings long after the
// Postgres telemetry table has rolled them off, for later model retraining.
const sensorArchiveCollection = "sensor_archive"

// SensorArchive mirrors telemetry sensor payloads into MongoDB, decoupling
// long-term retention from the operational Postgres store.
type SensorArchive struct {
	mongo *db.MongoDB
}

// NewSensorArchive constructs a SensorArchive over an existing Mongo
// connection.
func NewSensorArchive(mongo *db.MongoDB) *SensorArchive {
	return &SensorArchive{mongo: mongo}
}

// archivedReading is the document shape stored per sensor archive entry.
type archivedReading struct {
	DeviceID  string       `bson:"device_id"`
	Lat       float64      `bson:"lat"`
	Lon       float64      `bson:"lon"`
	Sensors   []db.Sensor  `bson:"sensors"`
	Timestamp time.Time    `bson:"timestamp"`
	ArchivedAt time.Time   `bson:"archived_at"`
}

// Archive inserts one observation's sensor readings into the archive
// collection. Failures here must never block the ingestion hot path; callers
// should log and continue.
func (a *SensorArchive) Archive(ctx context.Context, o *db.Observation, sensors []db.Sensor) error {
	doc := archivedReading{
		DeviceID:   o.DeviceID,
		Lat:        o.Lat,
		Lon:        o.Lon,
		Sensors:    sensors,
		Timestamp:  o.Timestamp,
		ArchivedAt: time.Now().UTC(),
	}
	_, err := a.mongo.Collection(sensorArchiveCollection).InsertOne(ctx, doc)
	return err
}

// RecentByDevice returns the most recently archived readings for a device,
// used by retraining jobs that need a longer history than Postgres retains.
func (a *SensorArchive) RecentByDevice(ctx context.Context, deviceID string, limit int64) ([]archivedReading, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "archived_at", Value: -1}}).SetLimit(limit)
	cursor, err := a.mongo.Collection(sensorArchiveCollection).Find(ctx, bson.M{"device_id": deviceID}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []archivedReading
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
