package xcomponent

import (
	"bytes"
	"context"
	"runtime"
	"strconv"
	"sync/atomic"
)

type chainKey struct{}

// chainSeq 显式链 ID 分配器
var chainSeq atomic.Uint64

// NewChain 返回携带新显式调用链的 context
//
// 把该 context 传给 Tracker.Track 的所有调用共享同一个活跃栈，
// 即使它们发生在不同 goroutine 中。
func NewChain(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	id := ChainID{ID: chainSeq.Add(1), Explicit: true}
	return context.WithValue(ctx, chainKey{}, id)
}

// ChainFromContext 返回 ctx 中的显式调用链
func ChainFromContext(ctx context.Context) (ChainID, bool) {
	if ctx == nil {
		return ChainID{}, false
	}
	id, ok := ctx.Value(chainKey{}).(ChainID)
	return id, ok
}

// currentChain 优先使用 ctx 中的显式链，否则使用当前 goroutine
func currentChain(ctx context.Context) ChainID {
	if id, ok := ChainFromContext(ctx); ok {
		return id
	}
	return ChainID{ID: goroutineID()}
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID 从 runtime.Stack 的首行 "goroutine 123 [running]:" 解析当前 goroutine ID
//
// 解析失败时返回 0，所有无法识别的 goroutine 会落到同一条链上。
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	if !bytes.HasPrefix(b, goroutinePrefix) {
		return 0
	}
	b = b[len(goroutinePrefix):]
	end := bytes.IndexByte(b, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(b[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
