package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/sportfield-booking/internal/model"
	"github.com/iliyamo/sportfield-booking/internal/wire"
)

// Fetcher supplies branch availability for a push.
type Fetcher interface {
	BranchAvailability(ctx context.Context, branchID uint64, date string) ([]model.FieldAvailability, error)
}

// Responder answers update requests.  Concurrent requests for the same pair
// inside the dedupe window produce a single push, even across instances.
type Responder struct {
	rdb     *redis.Client
	src     Fetcher
	dedupe  time.Duration
	workers int
	logger  *zap.Logger
}

// NewResponder wires a Responder.  dedupe defaults to one second.
func NewResponder(rdb *redis.Client, src Fetcher, dedupe time.Duration, logger *zap.Logger) *Responder {
	if rdb == nil || src == nil {
		panic("nil dependency passed to NewResponder")
	}
	if dedupe <= 0 {
		dedupe = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{rdb: rdb, src: src, dedupe: dedupe, workers: 4, logger: logger.With(zap.String("component", "realtime-responder"))}
}

// Run consumes RequestsChannel until ctx is done.
func (r *Responder) Run(ctx context.Context) error {
	ps := r.rdb.Subscribe(ctx, RequestsChannel)
	defer func() { _ = ps.Close() }()
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", RequestsChannel, err)
	}
	r.logger.Info("listening for update requests")

	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			return nil
		case msg, ok := <-msgs:
			if !ok {
				_ = g.Wait()
				return fmt.Errorf("%s: subscription closed", RequestsChannel)
			}
			p, err := parseRequest([]byte(msg.Payload))
			if err != nil {
				r.logger.Warn("bad update request", zap.Error(err))
				continue
			}
			g.Go(func() error {
				if err := r.Handle(ctx, p); err != nil {
					r.logger.Warn("update request failed", zap.Uint64("branch_id", p.BranchID), zap.String("date", p.Date), zap.Error(err))
				}
				return nil
			})
		}
	}
}

// Handle publishes fresh availability for p unless another push for p was
// published within the dedupe window.
func (r *Responder) Handle(ctx context.Context, p model.Pair) error {
	ok, err := r.rdb.SetNX(ctx, lockKey(p), 1, r.dedupe).Result()
	if err != nil {
		return fmt.Errorf("dedupe lock: %w", err)
	}
	if !ok {
		return nil
	}
	data, err := r.src.BranchAvailability(ctx, p.BranchID, p.Date)
	if err != nil {
		// Let the next request retry right away.
		_ = r.rdb.Del(context.WithoutCancel(ctx), lockKey(p)).Err()
		return fmt.Errorf("fetch availability: %w", err)
	}
	return r.Publish(ctx, wire.Update{BranchID: p.BranchID, Date: p.Date, Data: data})
}

// Publish sends u on its pair topic.
func (r *Responder) Publish(ctx context.Context, u wire.Update) error {
	body, err := wire.EncodeUpdate(u)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, Topic(model.Pair{BranchID: u.BranchID, Date: u.Date}), body).Err()
}

func lockKey(p model.Pair) string { return "lock:" + Topic(p) }

func parseRequest(b []byte) (model.Pair, error) {
	var p model.Pair
	if err := json.Unmarshal(b, &p); err != nil {
		return model.Pair{}, err
	}
	if !p.Valid() {
		return model.Pair{}, fmt.Errorf("incomplete pair %q", b)
	}
	return p, nil
}
