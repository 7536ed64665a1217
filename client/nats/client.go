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

package nats

import (
	"context"
	"time"

	natsio "github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/mendersoftware/go-lib-micro/log"
)

const (
	// Set reconnect buffer size in bytes (10 MB)
	reconnectBufSize = 10 * 1024 * 1024
	// Set reconnect interval to 1 second
	reconnectWaitTime = 1 * time.Second
	// Give up reconnecting after two minutes of fixed backoff
	maxReconnects = 120
)

// ErrNotConnected is returned when an operation requires an
// established connection.
var ErrNotConnected = errors.New("nats: not connected")

// Client is the nats client
//
//go:generate ../../utils/mockgen.sh
type Client interface {
	Publish(string, []byte) error
	ChanSubscribe(string, chan *natsio.Msg) (*natsio.Subscription, error)
	Subscribe(string, natsio.MsgHandler) (*natsio.Subscription, error)
	EnsureStream(ctx context.Context, name string,
		subjects []string, maxAge time.Duration, maxMsgs int64) error
	StreamPublish(ctx context.Context, subj string, data []byte) error
	IsConnected() bool
	IsClosed() bool
	Close()
}

// NewClient returns a new nats client
func NewClient(url string, opts ...natsio.Option) (Client, error) {
	natsClient, err := natsio.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &client{
		nats: natsClient,
	}, nil
}

// NewClientWithDefaults returns a new nats client with the default
// reconnect policy and the given user credentials.
func NewClientWithDefaults(url, username, password string) (Client, error) {
	ctx := context.Background()
	l := log.FromContext(ctx)

	natsClient, err := NewClient(url,
		func(o *natsio.Options) error {
			o.User = username
			o.Password = password
			o.AllowReconnect = true
			o.MaxReconnect = maxReconnects
			o.ReconnectBufSize = reconnectBufSize
			o.ReconnectWait = reconnectWaitTime
			o.ClosedCB = func(_ *natsio.Conn) {
				l.Info("nats client closed the connection")
			}
			o.DisconnectedErrCB = func(_ *natsio.Conn, e error) {
				if e != nil {
					l.Warnf("nats client disconnected, err: %v", e)
				}
			}
			o.ReconnectedCB = func(_ *natsio.Conn) {
				l.Warn("nats client reconnected")
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return natsClient, nil
}

type client struct {
	nats *natsio.Conn
	js   natsio.JetStreamContext
}

func (c *client) Publish(subj string, data []byte) error {
	return c.nats.Publish(subj, data)
}

func (c *client) ChanSubscribe(subj string,
	channel chan *natsio.Msg) (*natsio.Subscription, error) {
	return c.nats.ChanSubscribe(subj, channel)
}

func (c *client) Subscribe(subj string,
	handler natsio.MsgHandler) (*natsio.Subscription, error) {
	return c.nats.Subscribe(subj, handler)
}

func (c *client) jetStream() (natsio.JetStreamContext, error) {
	if c.js == nil {
		js, err := c.nats.JetStream()
		if err != nil {
			return nil, errors.Wrap(err,
				"nats: failed to initialize JetStream context")
		}
		c.js = js
	}
	return c.js, nil
}

// EnsureStream creates the stream if it does not exist. An existing
// stream is left untouched, so retention changes require an operator
// migration.
func (c *client) EnsureStream(
	ctx context.Context,
	name string,
	subjects []string,
	maxAge time.Duration,
	maxMsgs int64,
) error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}
	_, err = js.StreamInfo(name, natsio.Context(ctx))
	if err == nil {
		return nil
	} else if err != natsio.ErrStreamNotFound {
		return errors.Wrapf(err, "nats: failed to look up stream %s", name)
	}
	_, err = js.AddStream(&natsio.StreamConfig{
		Name:      name,
		Subjects:  subjects,
		Retention: natsio.LimitsPolicy,
		MaxAge:    maxAge,
		MaxMsgs:   maxMsgs,
		Storage:   natsio.FileStorage,
	}, natsio.Context(ctx))
	if err != nil {
		return errors.Wrapf(err, "nats: failed to create stream %s", name)
	}
	return nil
}

func (c *client) StreamPublish(ctx context.Context, subj string, data []byte) error {
	js, err := c.jetStream()
	if err != nil {
		return err
	}
	_, err = js.Publish(subj, data, natsio.Context(ctx))
	return err
}

func (c *client) IsConnected() bool {
	return c.nats.IsConnected()
}

func (c *client) IsClosed() bool {
	return c.nats.IsClosed()
}

func (c *client) Close() {
	c.nats.Close()
}
