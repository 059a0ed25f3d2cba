package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/valpere/uxtran/internal"
	"github.com/valpere/uxtran/internal/batch"
)

type countingOp struct {
	calls int
	errs  []error
	ok    batch.Result
}

// op fails with errs in order, then succeeds with ok.
func (c *countingOp) op(_ context.Context, texts []string, _ internal.Mode) (batch.Result, error) {
	c.calls++
	if c.calls <= len(c.errs) {
		return batch.Result{}, c.errs[c.calls-1]
	}
	return c.ok, nil
}

func alwaysFail(err error) *countingOp {
	errs := make([]error, 100)
	for i := range errs {
		errs[i] = err
	}
	return &countingOp{errs: errs}
}

func newDriver(attempts int) *Driver {
	return New(Config{MaxAttempts: attempts, Delay: 0}, BreakerConfig{}, nil)
}

func TestExecute_SuccessFirstAttempt(t *testing.T) {
	op := &countingOp{ok: batch.Result{Texts: []string{"Login"}}}
	res := newDriver(3).Execute(context.Background(), 0, 1, []string{"로그인"}, internal.Translate("en"), op.op)

	if op.calls != 1 {
		t.Errorf("expected 1 call, got %d", op.calls)
	}
	if res.Degraded {
		t.Error("expected non-degraded result")
	}
	if res.Texts[0] != "Login" {
		t.Errorf("unexpected text %q", res.Texts[0])
	}
}

func TestExecute_RecoversAfterFailures(t *testing.T) {
	op := &countingOp{
		errs: []error{batch.ErrMalformedResponse, batch.ErrEmptyResponse},
		ok:   batch.Result{Texts: []string{"Login"}},
	}
	res := newDriver(3).Execute(context.Background(), 0, 1, []string{"로그인"}, internal.Translate("en"), op.op)

	if op.calls != 3 {
		t.Errorf("expected 3 calls, got %d", op.calls)
	}
	if res.Degraded || res.Attempts != 3 {
		t.Errorf("expected success on attempt 3, got %+v", res)
	}
}

func TestExecute_FallbackTranslate(t *testing.T) {
	op := alwaysFail(batch.ErrBackendUnavailable)
	res := newDriver(3).Execute(context.Background(), 0, 1, []string{"로그인", "회원가입"}, internal.Translate("en"), op.op)

	if op.calls != 3 {
		t.Errorf("expected exactly 3 calls, got %d", op.calls)
	}
	if !res.Degraded {
		t.Error("expected degraded result")
	}
	want := []string{"[EN] 로그인", "[EN] 회원가입"}
	for i := range want {
		if res.Texts[i] != want[i] {
			t.Errorf("text %d: expected %q, got %q", i, want[i], res.Texts[i])
		}
	}
}

func TestExecute_ShapeMismatchRetriedThenFallback(t *testing.T) {
	op := alwaysFail(fmt.Errorf("%w: expected 2 elements, got 1", batch.ErrShapeMismatch))
	res := newDriver(2).Execute(context.Background(), 0, 1, []string{"a", "b"}, internal.Rewrite(), op.op)

	if op.calls != 2 {
		t.Errorf("expected 2 calls, got %d", op.calls)
	}
	if res.Texts[0] != "a (improvement failed)" {
		t.Errorf("unexpected fallback %q", res.Texts[0])
	}
}

func TestExecute_MissingCredentialNoRetry(t *testing.T) {
	op := alwaysFail(batch.ErrMissingCredential)
	d := New(Config{MaxAttempts: 3, Delay: time.Hour}, BreakerConfig{}, nil)

	res := d.Execute(context.Background(), 0, 1, []string{"저장"}, internal.RewriteWithReason(), op.op)

	if op.calls != 1 {
		t.Errorf("expected 1 call, got %d", op.calls)
	}
	if !res.Degraded {
		t.Error("expected degraded result")
	}
	imp := res.Improvements[0]
	if imp.Improved != "저장 (improvement failed)" || imp.Reason != FallbackReason || imp.Original != "저장" {
		t.Errorf("unexpected improvement %+v", imp)
	}
}

func TestExecute_CancelledDuringDelay(t *testing.T) {
	op := alwaysFail(batch.ErrBackendUnavailable)
	d := New(Config{MaxAttempts: 3, Delay: time.Hour}, BreakerConfig{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan Result, 1)
	go func() {
		done <- d.Execute(ctx, 0, 1, []string{"a"}, internal.Rewrite(), op.op)
	}()

	select {
	case res := <-done:
		if !res.Degraded {
			t.Error("expected degraded result after cancellation")
		}
		if op.calls != 1 {
			t.Errorf("expected 1 call before cancellation, got %d", op.calls)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Execute did not return after cancellation")
	}
}

func TestExecute_BreakerOpensAcrossChunks(t *testing.T) {
	op := alwaysFail(batch.ErrBackendUnavailable)
	d := New(Config{MaxAttempts: 3}, BreakerConfig{Failures: 2, Cooldown: time.Hour}, nil)

	d.Execute(context.Background(), 0, 3, []string{"a"}, internal.Rewrite(), op.op)
	d.Execute(context.Background(), 1, 3, []string{"b"}, internal.Rewrite(), op.op)
	res := d.Execute(context.Background(), 2, 3, []string{"c"}, internal.Rewrite(), op.op)

	// two full chunks of attempts open the circuit, the third chunk is skipped
	if op.calls != 6 {
		t.Errorf("expected 6 backend calls, got %d", op.calls)
	}
	if !res.Degraded || res.Attempts != 0 {
		t.Errorf("expected fallback without attempts while the circuit is open, got %+v", res)
	}
}

func TestExecute_BreakerNeverCutsAttemptsShort(t *testing.T) {
	op := alwaysFail(batch.ErrBackendUnavailable)
	d := New(Config{MaxAttempts: 3}, BreakerConfig{Failures: 5, Cooldown: time.Hour}, nil)

	for i := 0; i < 3; i++ {
		res := d.Execute(context.Background(), i, 3, []string{"a"}, internal.Rewrite(), op.op)
		if res.Attempts != 3 {
			t.Errorf("chunk %d: expected 3 attempts, got %d", i, res.Attempts)
		}
	}
	if op.calls != 9 {
		t.Errorf("expected 9 backend calls, got %d", op.calls)
	}
}

func TestExecute_BreakerClosesOnSuccess(t *testing.T) {
	d := New(Config{MaxAttempts: 1}, BreakerConfig{Failures: 2, Cooldown: time.Hour}, nil)

	failing := alwaysFail(batch.ErrBackendUnavailable)
	d.Execute(context.Background(), 0, 4, []string{"a"}, internal.Rewrite(), failing.op)

	ok := &countingOp{ok: batch.Result{Texts: []string{"b!"}}}
	d.Execute(context.Background(), 1, 4, []string{"b"}, internal.Rewrite(), ok.op)

	d.Execute(context.Background(), 2, 4, []string{"c"}, internal.Rewrite(), failing.op)
	res := d.Execute(context.Background(), 3, 4, []string{"d"}, internal.Rewrite(), failing.op)

	if failing.calls != 3 {
		t.Errorf("expected the success to reset the failure count, got %d failing calls", failing.calls)
	}
	if res.Attempts != 1 {
		t.Errorf("expected last chunk to be attempted, got %+v", res)
	}
}

func TestExecute_BreakerIgnoresMissingCredential(t *testing.T) {
	op := alwaysFail(batch.ErrMissingCredential)
	d := New(Config{MaxAttempts: 3}, BreakerConfig{Failures: 1, Cooldown: time.Hour}, nil)

	for i := 0; i < 3; i++ {
		d.Execute(context.Background(), i, 3, []string{"a"}, internal.Rewrite(), op.op)
	}
	if op.calls != 3 {
		t.Errorf("expected one call per chunk, got %d", op.calls)
	}
}

func TestExecute_FallbackTotality(t *testing.T) {
	modes := []internal.Mode{
		internal.Translate("ja"),
		internal.Translate("ko"),
		internal.Rewrite(),
		internal.RewriteWithReason(),
	}
	texts := []string{"로그인", "", "비밀번호 찾기"}

	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			res := newDriver(1).Execute(context.Background(), 0, 1, texts, mode, alwaysFail(errors.New("boom")).op)
			if len(res.Texts) != len(texts) {
				t.Fatalf("expected %d texts, got %d", len(texts), len(res.Texts))
			}
			if mode.WithReason() && len(res.Improvements) != len(texts) {
				t.Fatalf("expected %d improvements, got %d", len(texts), len(res.Improvements))
			}
			if res.Texts[1] != "" {
				t.Errorf("blank text should stay blank, got %q", res.Texts[1])
			}
		})
	}
}

func TestLangTag(t *testing.T) {
	tests := map[string]string{
		"en": "[EN]",
		"ja": "[JP]",
		"zh": "[CN]",
		"es": "[ES]",
		"fr": "[FR]",
		"de": "[DE]",
		"ko": "[KO]",
		"pt": "[PT]",
	}
	for lang, want := range tests {
		if got := LangTag(lang); got != want {
			t.Errorf("LangTag(%q) = %q, want %q", lang, got, want)
		}
	}
}
