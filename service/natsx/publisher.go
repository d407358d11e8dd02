package natsx

import (
	"encoding/json"
	"time"

	"LinkIM/logger"
	"LinkIM/service/chat"

	"github.com/nats-io/nats.go"
)

// Subjects published by the gateway firehose.
const (
	SubjPresence = "im.presence"
	SubjMessage  = "im.message.delivered"
)

// Publisher mirrors gateway events onto NATS for downstream consumers
// (offline push, analytics). Fire-and-forget; a publish failure never
// affects delivery to the live connections.
type Publisher struct {
	nc   *nats.Conn
	gwID string
}

func Dial(url, gwID string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("linkim-gateway-"+gwID),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, gwID: gwID}, nil
}

type presenceEvent struct {
	UserID    string    `json:"userId"`
	IsOnline  bool      `json:"isOnline"`
	At        time.Time `json:"at"`
	GatewayID string    `json:"gatewayId"`
}

type messageEvent struct {
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	At         time.Time `json:"at"`
	GatewayID  string    `json:"gatewayId"`
}

func (p *Publisher) PresenceChanged(userID string, online bool, at time.Time) {
	p.publish(SubjPresence, presenceEvent{UserID: userID, IsOnline: online, At: at, GatewayID: p.gwID})
}

func (p *Publisher) MessageDelivered(msg chat.Message) {
	p.publish(SubjMessage, messageEvent{
		SenderID:   msg.SenderID(),
		ReceiverID: msg.ReceiverID(),
		At:         time.Now(),
		GatewayID:  p.gwID,
	})
}

func (p *Publisher) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("[natsx] marshal %s: %v", subject, err)
		return
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Add("gw", p.gwID)
	if err := p.nc.PublishMsg(msg); err != nil {
		logger.Warnf("[natsx] publish %s: %v", subject, err)
	}
}

func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}
