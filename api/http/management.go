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
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mendersoftware/go-lib-micro/identity"
	"github.com/mendersoftware/go-lib-micro/log"
	"github.com/mendersoftware/go-lib-micro/rest.utils"
	"github.com/pkg/errors"

	"github.com/openrmm/devicebus/app"
	"github.com/openrmm/devicebus/model"
	"github.com/openrmm/devicebus/subject"
)

const headerAuthorization = "Authorization"

// HTTP errors
var (
	ErrMissingUserAuthentication = errors.New(
		"missing or non-user identity in the authorization headers",
	)
)

var (
	WebsocketReadBufferSize  = 1024
	WebsocketWriteBufferSize = 1024

	pongWait  = 60 * time.Second
	writeWait = 10 * time.Second
)

// wsUpgrader is shared by the watch end-point; SetAcceptedOrigins
// narrows its origin check.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  WebsocketReadBufferSize,
	WriteBufferSize: WebsocketWriteBufferSize,
	CheckOrigin:     allowAllOrigins,
}

// sendCommandRequest is the POST /devices/:deviceId/command body.
type sendCommandRequest struct {
	Command        string                 `json:"command"`
	Parameters     map[string]interface{} `json:"parameters"`
	TimeoutSeconds int                    `json:"timeout_seconds"`
}

// ManagementController container for end-points
type ManagementController struct {
	app app.App
}

// NewManagementController returns a new ManagementController
func NewManagementController(app app.App) *ManagementController {
	return &ManagementController{app: app}
}

// GetDevice returns a device together with its derived connectivity
// status
func (h ManagementController) GetDevice(c *gin.Context) {
	ctx := c.Request.Context()

	idata := identity.FromContext(ctx)
	if idata == nil || !idata.IsUser {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": ErrMissingUserAuthentication.Error(),
		})
		return
	}
	tenantID := idata.Tenant
	deviceID := c.Param("deviceId")

	connectivity, err := h.app.GetDeviceConnectivity(ctx, tenantID, deviceID)
	if err == app.ErrDeviceNotFound {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	} else if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, connectivity)
}

// SendCommand publishes a command to the device and waits for the
// matching response. A timed-out command is a 200 carrying the
// structured timeout error; the caller owns the retry policy.
func (h ManagementController) SendCommand(c *gin.Context) {
	ctx := c.Request.Context()

	idata := identity.FromContext(ctx)
	if idata == nil || !idata.IsUser {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": ErrMissingUserAuthentication.Error(),
		})
		return
	}
	tenantID := idata.Tenant
	deviceID := c.Param("deviceId")

	rawData, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "bad request",
		})
		return
	}
	request := &sendCommandRequest{}
	if err = json.Unmarshal(rawData, request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": errors.Wrap(err, "invalid payload").Error(),
		})
		return
	} else if request.Command == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "command is empty",
		})
		return
	}

	// Reject commands to devices the tenant does not own before
	// touching the bus.
	if _, err := h.app.GetDevice(ctx, tenantID, deviceID); err != nil {
		if err == app.ErrDeviceNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	timeout := time.Duration(request.TimeoutSeconds) * time.Second
	result, err := h.app.SendCommand(ctx, tenantID, deviceID,
		request.Command, request.Parameters, timeout)
	if err != nil {
		if errors.Is(err, subject.ErrInvalidIdentifier) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result": result,
	})
}

// GetStats returns the routing counters
func (h ManagementController) GetStats(c *gin.Context) {
	idata := identity.FromContext(c.Request.Context())
	if idata == nil || !idata.IsUser {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": ErrMissingUserAuthentication.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, h.app.GetStats())
}

// Watch upgrades the request to a websocket and forwards the tenant's
// decoded envelopes as JSON frames until the peer goes away.
func (h ManagementController) Watch(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.FromContext(ctx)

	idata := identity.FromContext(ctx)
	if idata == nil || !idata.IsUser {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": ErrMissingUserAuthentication.Error(),
		})
		return
	}

	envelopes, cancel, err := h.app.Watch(ctx, idata.Tenant)
	if err != nil {
		l.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to attach to the tenant stream",
		})
		return
	}
	defer cancel()

	upgrader := wsUpgrader
	upgrader.Error = func(
		w http.ResponseWriter, r *http.Request, s int, e error) {
		rest.RenderError(c, s, e)
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		err = errors.Wrap(err,
			"unable to upgrade the request to websocket protocol")
		l.Error(err)
		return
	}

	//nolint:errcheck
	h.watchServeWS(ctx, conn, envelopes)
}

// watchServeWS owns the websocket until the peer closes or the stream
// ends. The reader goroutine only services control frames.
func (h ManagementController) watchServeWS(
	ctx context.Context,
	conn *websocket.Conn,
	envelopes <-chan *model.Envelope,
) error {
	l := log.FromContext(ctx)
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		l.Error(err)
		return err
	}
	pingPeriod := (pongWait * 9) / 10
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	conn.SetPongHandler(func(string) error {
		ticker.Reset(pingPeriod)
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case envelope, ok := <-envelopes:
			if !ok {
				return nil
			}
			data, err := json.Marshal(envelope)
			if err != nil {
				l.Error(err)
				continue
			}
			err = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err == nil {
				err = conn.WriteMessage(websocket.TextMessage, data)
			}
			if err != nil {
				return err
			}
		case <-ticker.C:
			err := conn.WriteControl(websocket.PingMessage,
				[]byte{}, time.Now().Add(writeWait))
			if err != nil {
				return err
			}
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
