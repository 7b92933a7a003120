// Package fanout 提供有界并发的“按下标对齐”映射。
//
// 每次调用都会创建、使用并等待自己的 worker 组；调用返回后不残留任何 goroutine。
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map 以最多 workers 个并发执行 fn，结果写入与输入下标对齐的槽位。
//
// 第一个错误会取消其余任务（尚未开始的任务直接跳过），并原样返回该错误；
// 出错时不返回部分结果。
func Map[T, R any](ctx context.Context, workers int, in []T, fn func(ctx context.Context, i int, v T) (R, error)) ([]R, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]R, len(in))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, v := range in {
		if gctx.Err() != nil {
			break
		}
		i, v := i, v
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, i, v)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// 父 ctx 在派发途中被取消时，g.Wait 可能返回 nil 但部分槽位未执行。
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Result 是 Each 的单个槽位：要么有值，要么有错误。
type Result[R any] struct {
	Value R
	Err   error
}

// Each 与 Map 相同，但单个任务失败不会影响其他任务；每个槽位各自携带结果或错误。
// ctx 被取消后，尚未开始的槽位记录 ctx.Err()。
func Each[T, R any](ctx context.Context, workers int, in []T, fn func(ctx context.Context, i int, v T) (R, error)) []Result[R] {
	if workers < 1 {
		workers = 1
	}
	out := make([]Result[R], len(in))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, v := range in {
		i, v := i, v
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			r, err := fn(ctx, i, v)
			out[i] = Result[R]{Value: r, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
