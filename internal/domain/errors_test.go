package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_UnwrapChain(t *testing.T) {
	hs := &HTTPStatusError{URL: "https://example.test/x", StatusCode: 404}
	netErr := &Error{Kind: KindNetwork, Stage: StageEpisodePage, URL: hs.URL, Err: hs}
	epErr := &Error{Kind: KindEpisode, Stage: StageEpisodePage, URL: hs.URL, Msg: "抓取单集页面失败", Err: netErr}
	wrapped := fmt.Errorf("season 1: %w", epErr)

	if KindOf(wrapped) != KindEpisode {
		t.Fatalf("最外层 kind 应为 episode，实际 %q", KindOf(wrapped))
	}
	if !IsKind(wrapped, KindNetwork) {
		t.Fatalf("错误链上应能找到 network")
	}
	if IsKind(wrapped, KindSeason) {
		t.Fatalf("错误链上不应存在 season")
	}
	var got *HTTPStatusError
	if !errors.As(wrapped, &got) || got.StatusCode != 404 {
		t.Fatalf("应能取到最内层 HTTPStatusError：%v", got)
	}
}

func TestHumanize_NamesStage(t *testing.T) {
	err := &Error{Kind: KindSeason, Stage: StageSeasonPage, Msg: "no episodes"}
	msg := Humanize(err)
	if !strings.Contains(msg, "季页面") {
		t.Fatalf("说明中应包含失败阶段：%q", msg)
	}

	hs := &Error{Kind: KindNetwork, Stage: StageSearch, Err: &HTTPStatusError{StatusCode: 429}}
	if msg := Humanize(hs); !strings.Contains(msg, "429") || !strings.Contains(msg, "搜索") {
		t.Fatalf("HTTP 错误说明不符合预期：%q", msg)
	}

	if Humanize(nil) != "" {
		t.Fatalf("nil 错误应返回空串")
	}
}
