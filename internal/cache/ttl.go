// Package cache はエントリごとに有効期限を持つインメモリキャッシュを提供する。
package cache

import (
	"sync"
	"time"
)

// entry は保存値と保存時刻の組。
// 期限切れの判定は読み出し時に保存時刻と比較して行う。
type entry[V any] struct {
	data     V
	storedAt time.Time
}

// Option はTTLキャッシュの生成オプション。
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock は現在時刻の取得関数を差し替える。テスト用。
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// TTL は固定の有効期間を持つキー・バリューキャッシュ。
// キー単位の置き換えはアトミックで、複数ゴルーチンから安全に利用できる。
type TTL[K comparable, V any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[K]entry[V]

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New は有効期間ttlのキャッシュを生成する。
func New[K comparable, V any](ttl time.Duration, opts ...Option) *TTL[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &TTL[K, V]{
		ttl:     ttl,
		now:     o.now,
		entries: make(map[K]entry[V]),
		stopCh:  make(chan struct{}),
	}
}

// Get はキーに対応する値を返す。
// 未登録または保存から有効期間を超えている場合はエントリを削除し、falseを返す。
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.storedAt) <= c.ttl {
		return e.data, true
	}

	c.mu.Lock()
	// 読み出し後に別のSetで置き換えられていないことを確認してから削除する
	if cur, exists := c.entries[key]; exists && cur.storedAt.Equal(e.storedAt) {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	var zero V
	return zero, false
}

// Set は値を無条件に上書きし、現在時刻を保存時刻とする。
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{data: value, storedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate は指定キーのエントリを削除する。
func (c *TTL[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear は全エントリを削除する。
func (c *TTL[K, V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[K]entry[V])
	c.mu.Unlock()
}

// Len は保持しているエントリ数を返す。
// 読み出しやスイープで削除されていない期限切れエントリも含む。
func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TTL はキャッシュの有効期間を返す。
func (c *TTL[K, V]) TTL() time.Duration {
	return c.ttl
}

// Sweep は期限切れのエントリをまとめて削除し、削除件数を返す。
func (c *TTL[K, V]) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// StartJanitor はバックグラウンドで定期的にSweepを実行する。
// Stopが呼ばれるまで継続する。
func (c *TTL[K, V]) StartJanitor(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop はバックグラウンドのスイープを停止し、全エントリを破棄する。
// 複数回呼び出しても安全。
func (c *TTL[K, V]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	c.Clear()
}
