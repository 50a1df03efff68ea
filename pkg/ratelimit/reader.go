// Package ratelimit throttles disk reads shared by the fingerprint workers.
package ratelimit

import (
	"context"
	"io"
	"sync"
	"time"
)

// minBucket keeps a token bucket large enough for one read buffer
const minBucket = 64 * 1024

// Limiter is a token bucket shared by every reader created from it
type Limiter struct {
	bytesPerSecond int64
	mu             sync.Mutex
	tokens         int64     // Available tokens (bytes)
	lastUpdate     time.Time // Last time tokens were refilled
	bucketSize     int64     // Maximum tokens (burst size)
}

// NewLimiter creates a limiter for bytesPerSecond. A non-positive rate
// returns nil, which every function here treats as unlimited.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	bucketSize := bytesPerSecond
	if bucketSize < minBucket {
		bucketSize = minBucket
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		tokens:         bucketSize,
		lastUpdate:     time.Now(),
		bucketSize:     bucketSize,
	}
}

// Rate returns the configured bytes per second
func (l *Limiter) Rate() int64 {
	if l == nil {
		return 0
	}
	return l.bytesPerSecond
}

// Wait blocks until n bytes may be read or ctx is done
func (l *Limiter) Wait(ctx context.Context, n int64) error {
	if l == nil {
		return nil
	}
	if n > l.bucketSize {
		n = l.bucketSize
	}

	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= n {
			l.tokens -= n
			l.mu.Unlock()
			return nil
		}
		deficit := n - l.tokens
		l.mu.Unlock()

		wait := time.Duration(float64(deficit) / float64(l.bytesPerSecond) * float64(time.Second))
		if wait < time.Millisecond {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refill adds tokens for the elapsed time (caller holds mu)
func (l *Limiter) refill() {
	now := time.Now()
	add := int64(now.Sub(l.lastUpdate).Seconds() * float64(l.bytesPerSecond))
	if add > 0 {
		l.tokens += add
		if l.tokens > l.bucketSize {
			l.tokens = l.bucketSize
		}
		l.lastUpdate = now
	}
}

// Reader reads from an underlying reader no faster than its limiter allows
type Reader struct {
	ctx     context.Context
	reader  io.Reader
	limiter *Limiter
}

// NewReader wraps reader with limiter; a nil limiter returns reader unchanged
func NewReader(ctx context.Context, reader io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return reader
	}
	return &Reader{ctx: ctx, reader: reader, limiter: limiter}
}

// Read implements io.Reader. Tokens are taken before the read, so a short
// read spends slightly more budget than it uses.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) > int(r.limiter.bucketSize) {
		p = p[:r.limiter.bucketSize]
	}
	if err := r.limiter.Wait(r.ctx, int64(len(p))); err != nil {
		return 0, err
	}
	return r.reader.Read(p)
}
