// Package realtime carries availability pushes between the service and its
// booking views over Redis pub/sub.  Each (branch, date) pair has its own
// topic; update requests travel on a shared request channel and are answered
// by the Responder.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/sportfield-booking/internal/model"
	"github.com/iliyamo/sportfield-booking/internal/wire"
)

// RequestsChannel is where views ask for a fresh push.
const RequestsChannel = "availability:requests"

const updateBuffer = 8

// ErrClosed is returned when using a subscription after Close.
var ErrClosed = errors.New("realtime: subscription closed")

// Topic returns the pub/sub channel name of a pair.
func Topic(p model.Pair) string {
	return "availability:" + strconv.FormatUint(p.BranchID, 10) + ":" + p.Date
}

// ParseTopic is the inverse of Topic.
func ParseTopic(topic string) (model.Pair, bool) {
	parts := strings.SplitN(topic, ":", 3)
	if len(parts) != 3 || parts[0] != "availability" {
		return model.Pair{}, false
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || parts[2] == "" {
		return model.Pair{}, false
	}
	return model.Pair{BranchID: id, Date: parts[2]}, true
}

// Subscription delivers the pushes of one joined topic.
type Subscription interface {
	Updates() <-chan wire.Update
	Close() error
}

// Channel is the realtime collaborator of a booking view.
type Channel interface {
	// Join subscribes to the topic of p.  The returned subscription only
	// delivers updates addressed to p.
	Join(ctx context.Context, p model.Pair) (Subscription, error)
	// RequestUpdate asks the responder to publish fresh availability for p.
	RequestUpdate(ctx context.Context, p model.Pair) error
}

// RedisChannel implements Channel on go-redis pub/sub.
type RedisChannel struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisChannel returns a channel over rdb.  The client is owned by the
// caller.
func NewRedisChannel(rdb *redis.Client, logger *zap.Logger) *RedisChannel {
	if rdb == nil {
		panic("nil redis client passed to NewRedisChannel")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisChannel{rdb: rdb, logger: logger.With(zap.String("component", "realtime"))}
}

// Join subscribes to the pair topic and waits for the subscription to be
// confirmed.
func (c *RedisChannel) Join(ctx context.Context, p model.Pair) (Subscription, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("join: invalid pair %+v", p)
	}
	ps := c.rdb.Subscribe(ctx, Topic(p))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("join %s: %w", Topic(p), err)
	}
	s := &redisSubscription{
		ps:      ps,
		pair:    p,
		updates: make(chan wire.Update, updateBuffer),
		logger:  c.logger.With(zap.String("topic", Topic(p))),
	}
	go s.pump()
	return s, nil
}

// RequestUpdate publishes p on RequestsChannel.
func (c *RedisChannel) RequestUpdate(ctx context.Context, p model.Pair) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Publish(ctx, RequestsChannel, body).Err()
}

type redisSubscription struct {
	ps      *redis.PubSub
	pair    model.Pair
	updates chan wire.Update
	logger  *zap.Logger
	once    sync.Once
}

func (s *redisSubscription) Updates() <-chan wire.Update { return s.updates }

func (s *redisSubscription) Close() error {
	err := ErrClosed
	s.once.Do(func() { err = s.ps.Close() })
	return err
}

func (s *redisSubscription) pump() {
	defer close(s.updates)
	for msg := range s.ps.Channel() {
		u, ok := accept(s.pair, []byte(msg.Payload), s.logger)
		if !ok {
			continue
		}
		s.offer(u)
	}
}

// offer queues u.  When the view is behind, the oldest queued push is
// dropped so the latest one always gets through.
func (s *redisSubscription) offer(u wire.Update) {
	for {
		select {
		case s.updates <- u:
			return
		default:
		}
		select {
		case <-s.updates:
			s.logger.Debug("view is behind, dropped oldest queued push")
		default:
		}
	}
}

// accept decodes a push and checks it is addressed to pair.  Pushes without
// an address are taken to belong to the topic they arrived on.
func accept(pair model.Pair, payload []byte, logger *zap.Logger) (wire.Update, bool) {
	u, err := wire.DecodeUpdate(payload)
	if err != nil {
		logger.Warn("undecodable push", zap.Error(err))
		return wire.Update{}, false
	}
	if u.BranchID == 0 {
		u.BranchID = pair.BranchID
	}
	if u.Date == "" {
		u.Date = pair.Date
	}
	if u.BranchID != pair.BranchID || u.Date != pair.Date {
		logger.Debug("push for another pair", zap.Uint64("branch_id", u.BranchID), zap.String("date", u.Date))
		return wire.Update{}, false
	}
	return u, true
}
