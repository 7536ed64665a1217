// Copyright 2024 OpenRMM AS
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package mongo

import (
	"context"
	"flag"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mendersoftware/go-lib-micro/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	dconfig "github.com/openrmm/devicebus/config"
)

// testDB holds the shared client used by the tests in this package.
// The connection is only established outside of short mode; every test
// touching the database skips itself when -short is set.
type testDB struct {
	client *mongo.Client
}

func (d *testDB) Client() *mongo.Client {
	return d.client
}

// Wipe drops the main database and every tenant database so the next
// test case starts from a clean slate.
func (d *testDB) Wipe() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	ds := NewDataStoreWithClient(d.client, config.Config)
	if err := ds.dropDatabase(); err != nil {
		panic(err)
	}
	names, err := d.client.ListDatabaseNames(ctx, bson.M{})
	if err != nil {
		panic(err)
	}
	for _, name := range names {
		if strings.HasPrefix(name, DbName+"-") {
			if err := d.client.Database(name).Drop(ctx); err != nil {
				panic(err)
			}
		}
	}
}

var db = &testDB{}

func TestMain(m *testing.M) {
	flag.Parse()
	if !testing.Short() {
		config.SetDefaults(config.Config, dconfig.Defaults)
		mongoURL := os.Getenv("TEST_MONGO_URL")
		if mongoURL == "" {
			mongoURL = "mongodb://localhost:27017"
		}
		config.Config.Set(dconfig.SettingMongo, mongoURL)

		ctx, cancel := context.WithTimeout(
			context.Background(), time.Second*10)
		client, err := NewClient(ctx, config.Config)
		cancel()
		if err != nil {
			panic(err)
		}
		db.client = client
		db.Wipe()
	}
	status := m.Run()
	if db.client != nil {
		db.Wipe()
		disconnectClient(context.Background(), db.client)
	}
	os.Exit(status)
}
