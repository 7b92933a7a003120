package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestBatchReport_Finalize_KeepsOrderAndSummaryAndUTC(t *testing.T) {
	r := BatchReport{
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Items: []BatchItem{
			{Series: "b show", Status: StatusOK},
			{Series: "a show", Status: StatusFailed, ErrorKind: string(KindSeries)},
			{Series: "c show", Status: StatusOK},
		},
	}

	r.Finalize()

	// 批量结果必须保持输入顺序。
	if r.Items[0].Series != "b show" || r.Items[1].Series != "a show" || r.Items[2].Series != "c show" {
		t.Fatalf("items 顺序被改变：%v", []string{r.Items[0].Series, r.Items[1].Series, r.Items[2].Series})
	}
	if r.Summary.OK != 2 || r.Summary.Failed != 1 {
		t.Fatalf("summary 统计不正确：%+v", r.Summary)
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-02-09T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
}
