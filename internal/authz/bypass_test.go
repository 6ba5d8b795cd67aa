package authz

import (
	"context"
	"errors"
	"testing"
)

func TestWithBypass(t *testing.T) {
	ctx := NewSystemContext(context.Background())

	bypassCtx, err := WithBypass(ctx, "test-reason")
	if err != nil {
		t.Fatalf("WithBypass failed: %v", err)
	}

	info, ok := GetBypassInfo(bypassCtx)
	if !ok {
		t.Fatal("GetBypassInfo should return true after WithBypass")
	}

	if info.Reason != "test-reason" {
		t.Errorf("Reason = %v, want %v", info.Reason, "test-reason")
	}

	if !info.Principal.IsSystem() {
		t.Error("Principal should be system type")
	}

	if info.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestWithBypass_RejectsUserPrincipal(t *testing.T) {
	ctx := NewUserContext(context.Background(), 1, true)

	_, err := WithBypass(ctx, "nope")
	if err == nil {
		t.Error("WithBypass should reject user principals, admin or not")
	}

	_, err = WithBypass(context.Background(), "nope")
	if err == nil {
		t.Error("WithBypass should reject contexts without principal")
	}
}

func TestRunWithBypass(t *testing.T) {
	ctx := NewSystemContext(context.Background())

	executed := false

	result, err := RunWithBypass(ctx, "test-closure", func(bypassCtx context.Context) (string, error) {
		executed = true

		if !IsBypassActive(bypassCtx) {
			t.Error("Bypass should be active inside closure")
		}

		return "success", nil
	})
	if err != nil {
		t.Fatalf("RunWithBypass failed: %v", err)
	}

	if !executed {
		t.Error("Closure should be executed")
	}

	if result != "success" {
		t.Errorf("Result = %v, want %v", result, "success")
	}

	if IsBypassActive(ctx) {
		t.Error("Bypass should not be active outside closure")
	}
}

func TestRunWithBypass_ErrorPropagation(t *testing.T) {
	ctx := NewSystemContext(context.Background())

	expectedErr := context.Canceled

	_, err := RunWithBypass(ctx, "test-error", func(bypassCtx context.Context) (string, error) {
		return "", expectedErr
	})

	if !errors.Is(err, expectedErr) {
		t.Errorf("error = %v, want %v", err, expectedErr)
	}
}

func TestRunWithSystemBypass(t *testing.T) {
	// No principal required on the incoming context.
	result, err := RunWithSystemBypass(context.Background(), "background-job", func(ctx context.Context) (int, error) {
		p, ok := GetPrincipal(ctx)
		if !ok || !p.IsSystem() {
			t.Error("closure should run with system principal")
		}

		if !IsBypassActive(ctx) {
			t.Error("bypass should be active inside closure")
		}

		return 7, nil
	})
	if err != nil {
		t.Fatalf("RunWithSystemBypass failed: %v", err)
	}

	if result != 7 {
		t.Errorf("Result = %v, want 7", result)
	}
}

func TestSetAuditLogger(t *testing.T) {
	var captured []bypassAuditRecord

	SetAuditLogger(func(ctx context.Context, record bypassAuditRecord) {
		captured = append(captured, record)
	})
	defer SetAuditLogger(nil)

	_, _ = RunWithSystemBypass(context.Background(), "audited-op", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, nil
	})

	if len(captured) == 0 {
		t.Fatal("audit logger should capture bypass records")
	}

	if captured[0].Reason != "audited-op" {
		t.Errorf("Reason = %v, want audited-op", captured[0].Reason)
	}

	if captured[0].Principal != "system" {
		t.Errorf("Principal = %v, want system", captured[0].Principal)
	}
}

func TestWithTestBypass(t *testing.T) {
	ctx := WithTestBypass(context.Background())

	p, ok := GetPrincipal(ctx)
	if !ok || !p.IsTest() {
		t.Error("WithTestBypass should install a test principal")
	}

	if !IsBypassActive(ctx) {
		t.Error("WithTestBypass should activate bypass")
	}
}
