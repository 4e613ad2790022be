package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/rant/internal/logger"
)

type fakePinger struct {
	failures int
	calls    int
}

func (f *fakePinger) Ping(ctx context.Context) *redis.StatusCmd {
	f.calls++
	cmd := redis.NewStatusCmd(ctx)
	if f.calls <= f.failures {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	cmd.SetVal("PONG")
	return cmd
}

func validOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "localhost:6379",
		ConnectTimeout: time.Second,
		RetryInterval:  time.Millisecond,
		MaxWait:        4 * time.Millisecond,
		PingTimeout:    100 * time.Millisecond,
		WarnThreshold:  2,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ConnectOptions)
		wantErr string
	}{
		{name: "valid", mutate: func(*ConnectOptions) {}},
		{name: "empty addr", mutate: func(o *ConnectOptions) { o.Addr = "" }, wantErr: "address"},
		{name: "zero connect timeout", mutate: func(o *ConnectOptions) { o.ConnectTimeout = 0 }, wantErr: "ConnectTimeout"},
		{name: "zero retry interval", mutate: func(o *ConnectOptions) { o.RetryInterval = 0 }, wantErr: "RetryInterval"},
		{name: "zero max wait", mutate: func(o *ConnectOptions) { o.MaxWait = 0 }, wantErr: "MaxWait"},
		{name: "zero ping timeout", mutate: func(o *ConnectOptions) { o.PingTimeout = 0 }, wantErr: "PingTimeout"},
		{name: "negative warn threshold", mutate: func(o *ConnectOptions) { o.WarnThreshold = -1 }, wantErr: "WarnThreshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestBackoffCaps(t *testing.T) {
	b := &backoff{next: time.Second, max: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("Next() #%d = %v, want %v", i, got, w)
		}
	}
}

func TestWaitReadyRetriesUntilPong(t *testing.T) {
	p := &fakePinger{failures: 3}
	if err := waitReady(context.Background(), p, validOptions(), logger.Nop()); err != nil {
		t.Fatalf("waitReady() error = %v", err)
	}
	if p.calls != 4 {
		t.Errorf("ping calls = %d, want 4", p.calls)
	}
}

func TestWaitReadyTimesOut(t *testing.T) {
	opts := validOptions()
	opts.ConnectTimeout = 20 * time.Millisecond
	p := &fakePinger{failures: 1 << 30}

	err := waitReady(context.Background(), p, opts, logger.Nop())
	if err == nil {
		t.Fatal("waitReady() should fail when redis never answers")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error should wrap last ping failure, got %v", err)
	}
}
