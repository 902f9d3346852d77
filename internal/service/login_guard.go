package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginGuard 按 (客户端IP, 用户名) 统计登录失败次数，窗口内超过上限即拒绝。
// 配置了 Redis 时计数放在 Redis 中，多进程共享；否则退回进程内计数。
type LoginGuard struct {
	rdb *redis.Client

	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	local       map[string]*failureWindow
}

type failureWindow struct {
	count   int
	expires time.Time
}

func NewLoginGuard(rdb *redis.Client, maxAttempts int, window time.Duration) *LoginGuard {
	return &LoginGuard{
		rdb:         rdb,
		maxAttempts: maxAttempts,
		window:      window,
		local:       make(map[string]*failureWindow),
	}
}

// SetLimits 配置热更新时调用
func (g *LoginGuard) SetLimits(maxAttempts int, window time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.maxAttempts = maxAttempts
	g.window = window
}

func (g *LoginGuard) limits() (int, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maxAttempts, g.window
}

func guardKey(scope, ip, username string) string {
	return fmt.Sprintf("exam:login_fail:%s:%s:%s", scope, ip, username)
}

// Allow 上限 <= 0 时不限流
func (g *LoginGuard) Allow(ctx context.Context, key string) (bool, error) {
	maxAttempts, _ := g.limits()
	if maxAttempts <= 0 {
		return true, nil
	}

	if g.rdb != nil {
		count, err := g.rdb.Get(ctx, key).Int()
		if err == redis.Nil {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return count < maxAttempts, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	w, ok := g.local[key]
	if !ok || time.Now().After(w.expires) {
		return true, nil
	}
	return w.count < maxAttempts, nil
}

func (g *LoginGuard) Fail(ctx context.Context, key string) error {
	_, window := g.limits()

	if g.rdb != nil {
		count, err := g.rdb.Incr(ctx, key).Result()
		if err != nil {
			return err
		}
		if count == 1 {
			return g.rdb.Expire(ctx, key, window).Err()
		}
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now()
	w, ok := g.local[key]
	if !ok || now.After(w.expires) {
		g.local[key] = &failureWindow{count: 1, expires: now.Add(window)}
		g.sweepLocked(now)
		return nil
	}
	w.count++
	return nil
}

func (g *LoginGuard) Reset(ctx context.Context, key string) error {
	if g.rdb != nil {
		return g.rdb.Del(ctx, key).Err()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.local, key)
	return nil
}

func (g *LoginGuard) sweepLocked(now time.Time) {
	for k, w := range g.local {
		if now.After(w.expires) {
			delete(g.local, k)
		}
	}
}
