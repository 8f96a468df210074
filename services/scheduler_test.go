package services

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestStartSchedulerRejectsBadCron(t *testing.T) {
	s, err := StartScheduler(context.Background(), nil, nil, nil, time.Minute, "every monday")
	if err == nil {
		_ = s.Shutdown()
		t.Fatal("expected error for invalid cron expression")
	}
	if s != nil {
		t.Fatalf("expected no scheduler on error, got %+v", s)
	}
	if !strings.Contains(err.Error(), "schedule leaderboard snapshot") {
		t.Fatalf("unexpected error %v", err)
	}
}
