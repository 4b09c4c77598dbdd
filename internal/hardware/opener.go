package hardware

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Opener unlocks a locker box.
type Opener interface {
	Open(ctx context.Context, box int) error
}

// NopOpener is used when no locker hardware is attached.
type NopOpener struct{}

func (NopOpener) Open(context.Context, int) error { return nil }

// openCommand is the message locker controllers listen for.
type openCommand struct {
	Action    string    `json:"action"`
	Box       int       `json:"box"`
	User      string    `json:"user,omitempty"`
	Requested time.Time `json:"requested"`
}

type userKey struct{}

// WithUser attaches the borrowing user to ctx so open commands can carry it.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// MQTTOpener publishes open commands to <prefix>/<box>/open.
type MQTTOpener struct {
	pub    Publisher
	prefix string
	qos    byte
	now    func() time.Time
}

func NewMQTTOpener(pub Publisher, topicPrefix string, qos byte) *MQTTOpener {
	return &MQTTOpener{pub: pub, prefix: topicPrefix, qos: qos, now: time.Now}
}

// Topic returns the command topic for box.
func (o *MQTTOpener) Topic(box int) string {
	return fmt.Sprintf("%s/%d/open", o.prefix, box)
}

func (o *MQTTOpener) Open(ctx context.Context, box int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user, _ := ctx.Value(userKey{}).(string)
	payload, err := json.Marshal(openCommand{
		Action:    "open",
		Box:       box,
		User:      user,
		Requested: o.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode open command: %w", err)
	}
	return o.pub.Publish(o.Topic(box), o.qos, false, payload)
}
