package view

import (
	"sync"
	"time"
)

// Debouncer は検索入力の静止期間を待ってから1回だけ関数を呼び出す。
// 静止期間内に複数回入力された場合は最後の値だけが使われる。
type Debouncer struct {
	// mu はタイマーと保留値を保護する。
	mu sync.Mutex
	// window は入力が静止したと判断するまでの待ち時間。
	window time.Duration
	// fn は静止期間の経過後に呼び出される関数。
	fn func(text string)
	// timer は起動中のタイマー。未起動の場合はnil。
	timer *time.Timer
	// pending は最後に入力された値。
	pending string
}

// NewDebouncer は新しいDebouncerを生成する。
// windowが0以下の場合はデバウンスせず、Triggerのたびに即座にfnを呼び出す。
func NewDebouncer(window time.Duration, fn func(text string)) *Debouncer {
	return &Debouncer{window: window, fn: fn}
}

// Trigger は入力値を記録し、静止期間のタイマーを再始動する。
func (d *Debouncer) Trigger(text string) {
	if d.window <= 0 {
		d.fn(text)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = text
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		text := d.pending
		d.mu.Unlock()
		d.fn(text)
	})
}

// Stop は保留中のタイマーをキャンセルする。
// すでに発火済み・未起動の場合は何もしない。
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
