package batch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/uxtran/internal"
	"github.com/valpere/uxtran/internal/backend"
	"github.com/valpere/uxtran/internal/logging"
	"github.com/valpere/uxtran/internal/prompt"
	"github.com/valpere/uxtran/internal/validator"
)

type fakeBackend struct {
	responses []string
	err       error
	calls     int
	requests  []backend.Request
}

func (f *fakeBackend) Name() string                    { return "fake" }
func (f *fakeBackend) Supports(internal.ModeKind) bool { return true }

func (f *fakeBackend) Complete(_ context.Context, req backend.Request) (string, error) {
	f.calls++
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	r := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return r, nil
}

type staticGlossary []prompt.Term

func (g staticGlossary) Terms(context.Context, string, string) ([]prompt.Term, error) {
	return g, nil
}

func TestRequest_Translate(t *testing.T) {
	fb := &fakeBackend{responses: []string{`["Login","Sign Up"]`}}
	c := New(fb, Config{})

	res, err := c.Request(context.Background(), []string{"로그인", "회원가입"}, internal.Translate("en"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Login", "Sign Up"}, res.Texts)
	assert.Nil(t, res.Improvements)

	require.Equal(t, 1, fb.calls)
	req := fb.requests[0]
	assert.InDelta(t, 0.3, req.Temperature, 1e-6)
	assert.Equal(t, DefaultMaxOutputTokens, req.MaxOutputTokens)
	assert.Contains(t, req.UserPayload, `["로그인","회원가입"]`)
	assert.Contains(t, req.SystemInstruction, "English")
}

func TestRequest_FencedJSON(t *testing.T) {
	fb := &fakeBackend{responses: []string{"```json\n[\"Login\", \"Sign Up\"]\n```"}}
	c := New(fb, Config{})

	res, err := c.Request(context.Background(), []string{"로그인", "회원가입"}, internal.Translate("en"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Login", "Sign Up"}, res.Texts)
}

func TestRequest_Failures(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
		want    error
	}{
		{"short array", &fakeBackend{responses: []string{`["Login"]`}}, ErrShapeMismatch},
		{"long array", &fakeBackend{responses: []string{`["a","b","c"]`}}, ErrShapeMismatch},
		{"non-string element", &fakeBackend{responses: []string{`["a", 2]`}}, ErrShapeMismatch},
		{"empty element", &fakeBackend{responses: []string{`["a", "  "]`}}, ErrShapeMismatch},
		{"empty response", &fakeBackend{responses: []string{"  \n"}}, ErrEmptyResponse},
		{"prose only", &fakeBackend{responses: []string{"I cannot translate that."}}, ErrMalformedResponse},
		{"transport error", &fakeBackend{err: errors.New("connection refused")}, ErrBackendUnavailable},
		{"no credential", &fakeBackend{err: backend.ErrNoCredential}, ErrMissingCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.backend, Config{})
			_, err := c.Request(context.Background(), []string{"로그인", "회원가입"}, internal.Translate("en"))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRequest_MissingCredentialMakesNoNetworkCall(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	c := New(backend.NewOpenAI(backend.Config{BaseURL: "http://127.0.0.1:1"}), Config{})

	_, err := c.Request(context.Background(), []string{"로그인"}, internal.Rewrite())
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestRequest_RewriteWithReason(t *testing.T) {
	fb := &fakeBackend{responses: []string{
		`Here you go: [{"original":"저장","improved":"변경 사항 저장","reason":"States what is saved"},` +
			`{"original":"확인","improved":"계속하기","reason":"Action-oriented"}]`,
	}}
	c := New(fb, Config{})

	res, err := c.Request(context.Background(), []string{"저장", "확인"}, internal.RewriteWithReason())
	require.NoError(t, err)
	require.Len(t, res.Improvements, 2)
	assert.Equal(t, internal.ImprovementResult{Original: "저장", Improved: "변경 사항 저장", Reason: "States what is saved"}, res.Improvements[0])
	assert.Equal(t, "Action-oriented", res.Improvements[1].Reason)
	assert.Equal(t, []string{"변경 사항 저장", "계속하기"}, res.Texts)
}

func TestRequest_RewriteWithReasonShape(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"strings instead of objects", `["a","b"]`},
		{"missing reason", `[{"original":"a","improved":"b"},{"original":"a","improved":"b","reason":"r"}]`},
		{"non-string reason", `[{"original":"a","improved":"b","reason":1},{"original":"a","improved":"b","reason":"r"}]`},
		{"null element", `[null,{"original":"a","improved":"b","reason":"r"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&fakeBackend{responses: []string{tt.response}}, Config{})
			_, err := c.Request(context.Background(), []string{"a", "c"}, internal.RewriteWithReason())
			assert.ErrorIs(t, err, ErrShapeMismatch)
		})
	}
}

func TestRequest_BlankItemsPassThrough(t *testing.T) {
	fb := &fakeBackend{responses: []string{`["Login"]`}}
	c := New(fb, Config{})

	res, err := c.Request(context.Background(), []string{" ", "로그인", ""}, internal.Translate("en"))
	require.NoError(t, err)
	assert.Equal(t, []string{" ", "Login", ""}, res.Texts)
	assert.Contains(t, fb.requests[0].UserPayload, `["로그인"]`)
}

func TestRequest_AllBlankMakesNoCall(t *testing.T) {
	fb := &fakeBackend{}
	c := New(fb, Config{})

	res, err := c.Request(context.Background(), []string{"", "  "}, internal.RewriteWithReason())
	require.NoError(t, err)
	assert.Equal(t, 0, fb.calls)
	assert.Equal(t, []string{"", "  "}, res.Texts)
	assert.Len(t, res.Improvements, 2)
}

func TestRequest_PlaceholdersRestored(t *testing.T) {
	fb := &fakeBackend{responses: []string{`["Hello [PH1], you have [PH0] messages"]`}}
	c := New(fb, Config{})

	res, err := c.Request(context.Background(), []string{"{name}님, 메시지 {{count}}개"}, internal.Translate("en"))
	require.NoError(t, err)
	assert.Equal(t, "Hello {name}, you have {{count}} messages", res.Texts[0])

	req := fb.requests[0]
	assert.NotContains(t, req.UserPayload, "{name}")
	assert.Contains(t, req.SystemInstruction, "[PHn]")
}

func TestRequest_CleansElements(t *testing.T) {
	fb := &fakeBackend{responses: []string{`["\"Settings\"", "Translation: Save"]`}}
	c := New(fb, Config{})

	res, err := c.Request(context.Background(), []string{"설정", "저장"}, internal.Translate("en"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Settings", "Save"}, res.Texts)
}

func TestRequest_GlossaryTermsInjected(t *testing.T) {
	fb := &fakeBackend{responses: []string{`["Sign Up"]`}}
	c := New(fb, Config{}, WithGlossary(staticGlossary{
		{Source: "회원가입", Target: "Sign Up"},
		{Source: "장바구니", Target: "Cart"},
	}))

	_, err := c.Request(context.Background(), []string{"회원가입"}, internal.Translate("en"))
	require.NoError(t, err)
	sys := fb.requests[0].SystemInstruction
	assert.Contains(t, sys, "회원가입 => Sign Up")
	assert.NotContains(t, sys, "Cart")
}

func TestRequest_InvalidMode(t *testing.T) {
	fb := &fakeBackend{}
	_, err := New(fb, Config{}).Request(context.Background(), []string{"a"}, internal.Translate(""))
	require.Error(t, err)
	assert.Equal(t, 0, fb.calls)
}

func TestImproveOne(t *testing.T) {
	fb := &fakeBackend{responses: []string{`["변경 사항 저장"]`}}
	c := New(fb, Config{Tone: prompt.ToneFormal})

	res, err := c.ImproveOne(context.Background(), "저장", false)
	require.NoError(t, err)
	assert.Equal(t, "저장", res.Original)
	assert.Equal(t, "변경 사항 저장", res.Improved)
	assert.True(t, strings.Contains(fb.requests[0].SystemInstruction, "button, formal"))
}

func TestRequest_UntranslatedResponseIsLogged(t *testing.T) {
	untouched := "변경 사항이 저장되었습니다. 이제 이 창을 닫아도 됩니다."
	fb := &fakeBackend{responses: []string{`["Saved", "` + untouched + `"]`}}

	var buf bytes.Buffer
	c := New(fb, Config{}, WithValidator(validator.New(nil)), WithLogger(logging.New(&buf, "warn")))

	res, err := c.Request(context.Background(), []string{"저장됨", untouched}, internal.Translate("en"))
	require.NoError(t, err)
	assert.Equal(t, untouched, res.Texts[1])
	assert.Contains(t, buf.String(), "response may not be translated")
}
