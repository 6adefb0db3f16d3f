// Package redisack is a reference Source implementation producing
// ack.AcknowledgableMessage[string] items from a Redis list, acknowledging
// by removing the claimed item from an in-flight hash. It is grounded on the
// teacher's RedisCheckpointStore: the same go-redis client shape, options
// struct, and key-prefixing convention, repurposed from checkpoint
// persistence to message delivery.
package redisack

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/flowlinego/flowline/ack"
	"github.com/flowlinego/flowline/pipe"
)

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// Options configures a Source's key layout, mirroring the teacher's
// RedisOptions (Addr/Password/DB plus a key prefix).
type Options struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix namespaces the list and in-flight hash so multiple pipelines
	// can share one Redis instance.
	KeyPrefix string
	// BlockTimeoutSeconds bounds how long one BLPOP call waits for a new
	// item before the source checks ctx again.
	BlockTimeoutSeconds int
}

func (o Options) withDefaults() Options {
	if o.KeyPrefix == "" {
		o.KeyPrefix = "flowline"
	}
	if o.BlockTimeoutSeconds <= 0 {
		o.BlockTimeoutSeconds = 1
	}
	return o
}

func (o Options) listKey() string    { return o.KeyPrefix + ":queue" }
func (o Options) inflightKey() string { return o.KeyPrefix + ":inflight" }

// Source pulls strings off a Redis list and wraps each as an
// AcknowledgableMessage whose Acknowledge callback removes it from the
// in-flight hash (i.e. confirms it will not be redelivered).
type Source struct {
	client *goredis.Client
	opts   Options
}

// New creates a Source connected to the given Redis address.
func New(opts Options) *Source {
	opts = opts.withDefaults()
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &Source{client: client, opts: opts}
}

// NewWithClient wraps an already-constructed client, e.g. one pointed at a
// miniredis instance in tests.
func NewWithClient(client *goredis.Client, opts Options) *Source {
	return &Source{client: client, opts: opts.withDefaults()}
}

// Execute implements node.Source[*ack.AcknowledgableMessage[string]].
func (s *Source) Execute(ctx context.Context) (*pipe.Pipe, error) {
	p, w := pipe.New(s.opts.listKey(), pipe.TypeOf[*ack.AcknowledgableMessage[string]](), 0)

	go func() {
		defer w.Close()
		for {
			if ctx.Err() != nil {
				return
			}
			res, err := s.client.BLPop(ctx, secondsToDuration(s.opts.BlockTimeoutSeconds), s.opts.listKey()).Result()
			if err == goredis.Nil {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.Fail(ctx, err)
				return
			}
			// res[0] is the key name, res[1] the value, per BLPOP's contract.
			value := res[1]
			claimID := fmt.Sprintf("%d", claimSeq(s.client, ctx, s.opts))
			if err := s.client.HSet(ctx, s.opts.inflightKey(), claimID, value).Err(); err != nil {
				w.Fail(ctx, err)
				return
			}
			msg := ack.New(value, "redis:"+s.opts.listKey(), map[string]string{"claim_id": claimID}, func(ctx context.Context) error {
				return s.client.HDel(ctx, s.opts.inflightKey(), claimID).Err()
			})
			if sendErr := w.Send(ctx, msg); sendErr != nil {
				return
			}
		}
	}()

	return p, nil
}

// Close releases the underlying Redis client.
func (s *Source) Close() error { return s.client.Close() }

func claimSeq(client *goredis.Client, ctx context.Context, opts Options) int64 {
	n, _ := client.Incr(ctx, opts.KeyPrefix+":claim_seq").Result()
	return n
}
