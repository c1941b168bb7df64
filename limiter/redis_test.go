package limiter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ZaguanLabs/tlproxy"
	"github.com/go-redis/redismock/v9"
)

var windowStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[min(i, len(times)-1)]
		i++
		return t
	}
}

func windowKey(scope string, start time.Time) string {
	return fmt.Sprintf("test:%s:%d", scope, start.Unix())
}

// expectHit registers the transaction Allow runs for one request.
func expectHit(mock redismock.ClientMock, key string, count int64) {
	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetVal(count)
	mock.ExpectExpireNX(key, time.Minute).SetVal(count == 1)
	mock.ExpectTxPipelineExec()
}

func TestRedisLimiter_Allow_FirstHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	l := NewRedisLimiterFromClient(db, 5, time.Minute, "test:").Scope("deepl")
	l.now = fixedClock(windowStart.Add(10 * time.Second))

	expectHit(mock, windowKey("deepl", windowStart), 1)

	ok, _, err := l.Allow(context.Background())
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if !ok {
		t.Error("Expected first request to be allowed")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisLimiter_Allow_ExpiryOnEveryHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	l := NewRedisLimiterFromClient(db, 5, time.Minute, "test:").Scope("deepl")
	l.now = fixedClock(windowStart.Add(20 * time.Second))

	// A counter left without a TTL by an earlier failure still gets one.
	expectHit(mock, windowKey("deepl", windowStart), 3)

	ok, _, err := l.Allow(context.Background())
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if !ok {
		t.Error("Expected request under the limit to be allowed")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisLimiter_Allow_UnderLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	l := NewRedisLimiterFromClient(db, 5, time.Minute, "test:").Scope("google")
	l.now = fixedClock(windowStart)

	expectHit(mock, windowKey("google", windowStart), 5)

	ok, _, err := l.Allow(context.Background())
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if !ok {
		t.Error("Expected request at the limit to be allowed")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisLimiter_Allow_OverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	l := NewRedisLimiterFromClient(db, 5, time.Minute, "test:").Scope("deepl")
	l.now = fixedClock(windowStart.Add(45 * time.Second))

	expectHit(mock, windowKey("deepl", windowStart), 6)

	ok, retryIn, err := l.Allow(context.Background())
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if ok {
		t.Error("Expected request over the limit to be refused")
	}
	if retryIn != 15*time.Second {
		t.Errorf("Expected retry in 15s, got %v", retryIn)
	}
}

func TestRedisLimiter_Wait_NextWindow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	next := windowStart.Add(time.Minute)
	l := NewRedisLimiterFromClient(db, 2, time.Minute, "test:").Scope("deepl")
	l.now = fixedClock(next.Add(-5*time.Millisecond), next)

	expectHit(mock, windowKey("deepl", windowStart), 3)
	expectHit(mock, windowKey("deepl", next), 1)

	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestRedisLimiter_Wait_ContextCancelled(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	l := NewRedisLimiterFromClient(db, 1, time.Minute, "test:")
	l.now = fixedClock(windowStart)

	expectHit(mock, windowKey("all", windowStart), 2)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
}

func TestRedisLimiter_RedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	l := NewRedisLimiterFromClient(db, 5, time.Minute, "test:").Scope("openai")
	l.now = fixedClock(windowStart)

	key := windowKey("openai", windowStart)
	mock.ExpectTxPipeline()
	mock.ExpectIncr(key).SetErr(errors.New("connection refused"))
	mock.ExpectExpireNX(key, time.Minute).SetVal(false)
	mock.ExpectTxPipelineExec()

	err := l.Wait(context.Background())

	var pe *tlproxy.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected *ProviderError, got %v", err)
	}
	if pe.Provider != "openai" {
		t.Errorf("Provider = %q", pe.Provider)
	}
	if pe.Retryable {
		t.Error("Quota errors should not be retried")
	}
}

func TestRedisLimiter_Defaults(t *testing.T) {
	db, _ := redismock.NewClientMock()
	defer db.Close()

	l := NewRedisLimiterFromClient(db, 0, 0, "")
	if l.keyPrefix != "tlproxy:quota:" {
		t.Errorf("keyPrefix = %q", l.keyPrefix)
	}
	if l.window != time.Minute {
		t.Errorf("window = %v", l.window)
	}
	if l.limit != 1 {
		t.Errorf("limit = %d", l.limit)
	}
	if l.scope != "all" {
		t.Errorf("scope = %q", l.scope)
	}
}

func TestRedisLimiter_ScopeIsCopy(t *testing.T) {
	db, _ := redismock.NewClientMock()
	defer db.Close()

	base := NewRedisLimiterFromClient(db, 5, time.Minute, "test:")
	scoped := base.Scope("deepl")

	if base.scope != "all" || scoped.scope != "deepl" {
		t.Errorf("Scope should not modify the base limiter: %q / %q", base.scope, scoped.scope)
	}
}

func TestRedisLimiter_WithRateLimitedProvider(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	l := NewRedisLimiterFromClient(db, 5, time.Minute, "test:").Scope("deepl")
	l.now = fixedClock(windowStart)

	expectHit(mock, windowKey("deepl", windowStart), 2)

	p := tlproxy.NewRateLimitedProvider(echoProvider{}, l)
	got, err := p.Translate(context.Background(), tlproxy.TranslateRequest{Text: "Hello", TargetLang: "DE"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "Hello" {
		t.Errorf("Expected 'Hello', got %q", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

type echoProvider struct{}

func (echoProvider) Translate(ctx context.Context, req tlproxy.TranslateRequest) (string, error) {
	return req.Text, nil
}

func TestNewRedisLimiter_BadURL(t *testing.T) {
	_, err := NewRedisLimiter(RedisConfig{URL: "not a url"})

	var ce *tlproxy.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected *ConfigError, got %v", err)
	}
}
