// Copyright 2024 OpenRMM AS
//
//    All Rights Reserved

package mongo

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/mendersoftware/go-lib-micro/config"
	"github.com/mendersoftware/go-lib-micro/mongo/migrate"
	mstore "github.com/mendersoftware/go-lib-micro/store"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mopts "go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	dconfig "github.com/openrmm/devicebus/config"
	"github.com/openrmm/devicebus/model"
	"github.com/openrmm/devicebus/store"
)

const (
	// TenantsCollectionName refers to the collection of tenants,
	// kept in the main database
	TenantsCollectionName = "tenants"

	// DevicesCollectionName refers to the name of the collection of stored devices
	DevicesCollectionName = "devices"

	// ConnectivityCollectionName refers to the collection of per-device
	// connectivity records
	ConnectivityCollectionName = "connectivity"

	// CredentialsCollectionName refers to the collection of issued
	// tenant bus credentials
	CredentialsCollectionName = "credentials"
)

// SetupDataStore returns the mongo data store and optionally runs migrations
func SetupDataStore(automigrate bool) (*DataStoreMongo, error) {
	ctx := context.Background()
	dbClient, err := NewClient(ctx, config.Config)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("failed to connect to db: %v", err))
	}
	err = doMigrations(ctx, dbClient, automigrate)
	if err != nil {
		return nil, err
	}
	dataStore := NewDataStoreWithClient(dbClient, config.Config)
	return dataStore, nil
}

func doMigrations(ctx context.Context, client *mongo.Client,
	automigrate bool) error {
	db := config.Config.GetString(dconfig.SettingDbName)
	dbs, err := migrate.GetTenantDbs(ctx, client, mstore.IsTenantDb(db))
	if err != nil {
		return errors.Wrap(err, "failed go retrieve tenant DBs")
	}
	if len(dbs) == 0 {
		dbs = []string{DbName}
	}

	for _, d := range dbs {
		err := Migrate(ctx, d, DbVersion, client, automigrate)
		if err != nil {
			return errors.New(fmt.Sprintf("failed to run migrations: %v", err))
		}
	}
	return nil
}

func disconnectClient(parentCtx context.Context, client *mongo.Client) {
	ctx, cancel := context.WithTimeout(parentCtx, 1*time.Second)
	defer cancel()
	client.Disconnect(ctx)
}

// NewClient returns a mongo client
func NewClient(ctx context.Context, c config.Reader) (*mongo.Client, error) {

	clientOptions := mopts.Client()
	mongoURL := c.GetString(dconfig.SettingMongo)
	if !strings.Contains(mongoURL, "://") {
		return nil, errors.Errorf("Invalid mongoURL %q: missing schema.",
			mongoURL)
	}
	clientOptions.ApplyURI(mongoURL)

	username := c.GetString(dconfig.SettingDbUsername)
	if username != "" {
		credentials := mopts.Credential{
			Username: c.GetString(dconfig.SettingDbUsername),
		}
		password := c.GetString(dconfig.SettingDbPassword)
		if password != "" {
			credentials.Password = password
			credentials.PasswordSet = true
		}
		clientOptions.SetAuth(credentials)
	}

	if c.GetBool(dconfig.SettingDbSSL) {
		tlsConfig := &tls.Config{}
		tlsConfig.InsecureSkipVerify = c.GetBool(dconfig.SettingDbSSLSkipVerify)
		clientOptions.SetTLSConfig(tlsConfig)
	}

	// Set writeconcern to acknowlage after write has propagated to the
	// mongod instance and commited to the file system journal.
	wc := writeconcern.New(writeconcern.W(1), writeconcern.J(true))
	clientOptions.SetWriteConcern(wc)

	// Set 10s timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to connect to mongo server")
	}

	// Validate connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "Error reaching mongo server")
	}

	return client, nil
}

// DataStoreMongo is the data storage service
type DataStoreMongo struct {
	// client holds the reference to the client used to communicate with the
	// mongodb server.
	client *mongo.Client
	// dbName contains the name of the devicebus database.
	dbName string
}

// NewDataStoreWithClient initializes a DataStore object
func NewDataStoreWithClient(client *mongo.Client, c config.Reader) *DataStoreMongo {
	dbName := c.GetString(dconfig.SettingDbName)

	return &DataStoreMongo{
		client: client,
		dbName: dbName,
	}
}

// Ping verifies the connection to the database
func (db *DataStoreMongo) Ping(ctx context.Context) error {
	res := db.client.Database(db.dbName).RunCommand(ctx, bson.M{"ping": 1})
	return res.Err()
}

// ProvisionTenant provisions a new tenant: stores the tenant record in
// the main database and prepares the tenant's own database.
func (db *DataStoreMongo) ProvisionTenant(ctx context.Context, tenant *model.Tenant) error {
	coll := db.client.Database(db.dbName).Collection(TenantsCollectionName)

	updateOpts := &mopts.UpdateOptions{}
	updateOpts.SetUpsert(true)
	_, err := coll.UpdateOne(ctx,
		bson.M{"_id": tenant.TenantID},
		bson.M{
			"$set": bson.M{"name": tenant.Name},
		},
		updateOpts,
	)
	if err != nil {
		return err
	}

	dbname := mstore.DbNameForTenant(tenant.TenantID, db.dbName)
	return Migrate(ctx, dbname, DbVersion, db.client, true)
}

// GetTenant returns a tenant record, or store.ErrTenantNotFound when
// it does not exist
func (db *DataStoreMongo) GetTenant(ctx context.Context, tenantID string) (*model.Tenant, error) {
	coll := db.client.Database(db.dbName).Collection(TenantsCollectionName)

	cur := coll.FindOne(ctx, bson.M{"_id": tenantID})

	tenant := &model.Tenant{}
	if err := cur.Decode(tenant); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.ErrTenantNotFound
		}
		return nil, err
	}

	return tenant, nil
}

// ListTenants returns all known tenants
func (db *DataStoreMongo) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	coll := db.client.Database(db.dbName).Collection(TenantsCollectionName)

	cur, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tenants []model.Tenant
	if err := cur.All(ctx, &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}

// ProvisionDevice provisions a new device
func (db *DataStoreMongo) ProvisionDevice(ctx context.Context, tenantID string, deviceID string) error {
	dbname := mstore.DbNameForTenant(tenantID, db.dbName)
	coll := db.client.Database(dbname).Collection(DevicesCollectionName)

	now := time.Now()
	updateOpts := &mopts.UpdateOptions{}
	updateOpts.SetUpsert(true)
	_, err := coll.UpdateOne(ctx,
		bson.M{"_id": deviceID},
		bson.M{
			"$setOnInsert": bson.M{
				"tenant_id":  tenantID,
				"created_ts": now,
			},
			"$set": bson.M{"updated_ts": now},
		},
		updateOpts,
	)

	return err
}

// DeleteDevice deletes a device and its connectivity record
func (db *DataStoreMongo) DeleteDevice(ctx context.Context, tenantID, deviceID string) error {
	dbname := mstore.DbNameForTenant(tenantID, db.dbName)
	database := db.client.Database(dbname)

	if _, err := database.Collection(DevicesCollectionName).
		DeleteOne(ctx, bson.M{"_id": deviceID}); err != nil {
		return err
	}
	_, err := database.Collection(ConnectivityCollectionName).
		DeleteOne(ctx, bson.M{"_id": deviceID})
	return err
}

// GetDevice returns a device, or store.ErrDeviceNotFound when it does
// not exist in the tenant's database
func (db *DataStoreMongo) GetDevice(ctx context.Context, tenantID, deviceID string) (*model.Device, error) {
	dbname := mstore.DbNameForTenant(tenantID, db.dbName)
	coll := db.client.Database(dbname).Collection(DevicesCollectionName)

	cur := coll.FindOne(ctx, bson.M{"_id": deviceID})

	device := &model.Device{}
	if err := cur.Decode(&device); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, store.ErrDeviceNotFound
		}
		return nil, err
	}

	return device, nil
}

// GetConnectivityRecord returns a device's connectivity record, or nil
// when no heartbeat was ever recorded
func (db *DataStoreMongo) GetConnectivityRecord(
	ctx context.Context,
	tenantID, deviceID string,
) (*model.ConnectivityRecord, error) {
	dbname := mstore.DbNameForTenant(tenantID, db.dbName)
	coll := db.client.Database(dbname).Collection(ConnectivityCollectionName)

	cur := coll.FindOne(ctx, bson.M{"_id": deviceID})

	record := &model.ConnectivityRecord{}
	if err := cur.Decode(record); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return record, nil
}

// UpsertConnectivityRecord replaces a device's connectivity record.
// Whole-record last-write-wins: concurrent heartbeats for the same
// device are serialized by the document-level update.
func (db *DataStoreMongo) UpsertConnectivityRecord(
	ctx context.Context,
	tenantID string,
	record *model.ConnectivityRecord,
) error {
	dbname := mstore.DbNameForTenant(tenantID, db.dbName)
	coll := db.client.Database(dbname).Collection(ConnectivityCollectionName)

	replaceOpts := &mopts.ReplaceOptions{}
	replaceOpts.SetUpsert(true)
	_, err := coll.ReplaceOne(ctx,
		bson.M{"_id": record.DeviceID},
		record,
		replaceOpts,
	)

	return err
}

// UpsertCredentials stores the issued bus credentials for a tenant
func (db *DataStoreMongo) UpsertCredentials(
	ctx context.Context,
	creds *model.TenantCredentials,
) error {
	coll := db.client.Database(db.dbName).Collection(CredentialsCollectionName)

	replaceOpts := &mopts.ReplaceOptions{}
	replaceOpts.SetUpsert(true)
	_, err := coll.ReplaceOne(ctx,
		bson.M{"_id": creds.TenantID},
		creds,
		replaceOpts,
	)

	return err
}

// Close disconnects the client
func (db *DataStoreMongo) Close() error {
	ctx := context.Background()
	disconnectClient(ctx, db.client)
	return nil
}

func (db *DataStoreMongo) dropDatabase() error {
	ctx := context.Background()
	err := db.client.Database(db.dbName).Drop(ctx)
	return err
}
