package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/John-Robertt/tvrate/internal/domain"
)

// 退出码（固定）：0 全部成功；1 至少一个剧集失败或运行错误；2 用法错误。
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute 运行一次命令并返回退出码；stdout 只承载报告正文，其余输出全部写 stderr。
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(stderr, "参数错误：%v\n\n", ue.Err)
		fmt.Fprint(stderr, ue.Usage)
		return exitUsage
	}
	// 剧集失败已在命令内输出说明，这里只负责退出码。
	if errors.Is(err, errSomeFailed) {
		return exitFailed
	}
	if errors.Is(err, context.Canceled) {
		return exitFailed
	}
	var de *domain.Error
	if errors.As(err, &de) {
		fmt.Fprintln(stderr, domain.Humanize(err))
	} else {
		fmt.Fprintln(stderr, err)
	}
	return exitFailed
}

// errSomeFailed 表示至少一个剧集查询失败（说明已输出，调用方无需再打印）。
var errSomeFailed = errors.New("部分剧集查询失败")

type usageError struct {
	Err   error
	Usage string
}

func (e *usageError) Error() string { return e.Err.Error() }
func (e *usageError) Unwrap() error { return e.Err }
