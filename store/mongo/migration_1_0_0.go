// Copyright 2024 OpenRMM AS
//
//    All Rights Reserved

package mongo

import (
	"context"

	"github.com/mendersoftware/go-lib-micro/mongo/migrate"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mopts "go.mongodb.org/mongo-driver/mongo/options"
)

type migration1_0_0 struct {
	client *mongo.Client
	db     string
}

// Up creates the indexes backing device ownership lookups and
// connectivity reporting
func (m *migration1_0_0) Up(from migrate.Version) error {
	ctx := context.Background()
	database := m.client.Database(m.db)

	collDevices := database.Collection(DevicesCollectionName)
	idxDevices := collDevices.Indexes()

	indexOptions := mopts.Index()
	indexOptions.SetBackground(false)
	indexOptions.SetName("tenant_id")
	tenantIDIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "tenant_id", Value: 1}},
		Options: indexOptions,
	}
	if _, err := idxDevices.CreateOne(ctx, tenantIDIndex); err != nil {
		return err
	}

	collConnectivity := database.Collection(ConnectivityCollectionName)
	idxConnectivity := collConnectivity.Indexes()

	indexOptions = mopts.Index()
	indexOptions.SetBackground(false)
	indexOptions.SetName("last_heartbeat")
	lastHeartbeatIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "last_heartbeat", Value: -1}},
		Options: indexOptions,
	}
	if _, err := idxConnectivity.CreateOne(ctx, lastHeartbeatIndex); err != nil {
		return err
	}

	return nil
}

func (m *migration1_0_0) Version() migrate.Version {
	return migrate.MakeVersion(1, 0, 0)
}
