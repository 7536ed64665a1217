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

package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mendersoftware/go-lib-micro/accesslog"
	"github.com/mendersoftware/go-lib-micro/identity"
	"github.com/mendersoftware/go-lib-micro/requestid"

	"github.com/openrmm/devicebus/app"
)

// API URL used by the HTTP router
const (
	APIURLInternal   = "/api/internal/v1/devicebus"
	APIURLManagement = "/api/management/v1/devicebus"

	APIURLInternalAlive     = APIURLInternal + "/alive"
	APIURLInternalHealth    = APIURLInternal + "/health"
	APIURLInternalTenants   = APIURLInternal + "/tenants"
	APIURLInternalDevices   = APIURLInternal + "/tenants/:tenantId/devices"
	APIURLInternalDevicesID = APIURLInternal +
		"/tenants/:tenantId/devices/:deviceId"

	APIURLManagementDevice        = APIURLManagement + "/devices/:deviceId"
	APIURLManagementDeviceCommand = APIURLManagement + "/devices/:deviceId/command"
	APIURLManagementStats         = APIURLManagement + "/stats"
	APIURLManagementWatch         = APIURLManagement + "/watch"
)

// NewRouter returns the gin router
func NewRouter(app app.App) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	gin.DisableConsoleColor()

	router := gin.New()
	router.Use(accesslog.Middleware())
	router.Use(gin.Recovery())
	router.Use(identity.Middleware(
		identity.NewMiddlewareOptions().
			SetPathRegex(`^/api/management/v[0-9]/`),
	))
	router.Use(requestid.Middleware())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowCredentials: true,
		AllowHeaders: []string{
			"Accept",
			"Allow",
			"Content-Type",
			"Origin",
			"Authorization",
			"Accept-Encoding",
			"Access-Control-Request-Headers",
			"Header-Access-Control-Request",
		},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowWebSockets: true,
		ExposeHeaders: []string{
			"Location",
			"Link",
		},
		MaxAge: time.Hour * 12,
	}))

	status := NewStatusController(app)
	router.GET(APIURLInternalAlive, status.Alive)
	router.GET(APIURLInternalHealth, status.Health)

	internal := NewInternalController(app)
	router.POST(APIURLInternalTenants, internal.ProvisionTenant)
	router.POST(APIURLInternalDevices, internal.ProvisionDevice)
	router.DELETE(APIURLInternalDevicesID, internal.DeleteDevice)

	management := NewManagementController(app)
	router.GET(APIURLManagementDevice, management.GetDevice)
	router.POST(APIURLManagementDeviceCommand, management.SendCommand)
	router.GET(APIURLManagementStats, management.GetStats)
	router.GET(APIURLManagementWatch, management.Watch)

	return router, nil
}
