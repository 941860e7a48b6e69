package domain

import (
	"testing"
	"time"
)

func TestRunReport_Finalize(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	rr := RunReport{
		StartedAt:  time.Date(2026, 1, 2, 10, 0, 0, 0, loc),
		FinishedAt: time.Date(2026, 1, 2, 10, 0, 5, 0, loc),
		Summary:    ReportSummary{PoolSize: 7},
		Tests: []TestResult{
			{Index: 2, Status: StatusFailed},
			{Index: 0, Status: StatusGenerated},
			{Index: 1, Status: StatusGenerated},
		},
	}
	rr.Finalize()

	if rr.StartedAt.Location() != time.UTC || rr.FinishedAt.Location() != time.UTC {
		t.Fatalf("时间必须统一为 UTC")
	}
	for i, tr := range rr.Tests {
		if tr.Index != i {
			t.Fatalf("tests 应按 Index 排序，位置 %d 是 Index=%d", i, tr.Index)
		}
	}
	if rr.Summary.Generated != 2 || rr.Summary.Failed != 1 {
		t.Fatalf("summary 计算错误：%+v", rr.Summary)
	}
	if rr.Summary.PoolSize != 7 {
		t.Fatalf("Finalize 不应覆盖 PoolSize：%+v", rr.Summary)
	}
}
