package detector

import (
	"testing"
)

func TestDetector_DetectISO(t *testing.T) {
	d := New()

	tests := []struct {
		name     string
		text     string
		wantCode string
		wantOK   bool
	}{
		{
			name:   "empty text",
			text:   "",
			wantOK: false,
		},
		{
			name:   "whitespace only",
			text:   "   \n",
			wantOK: false,
		},
		{
			name:     "korean text",
			text:     "로그인 후 설정 화면에서 비밀번호를 변경할 수 있습니다.",
			wantCode: "ko",
			wantOK:   true,
		},
		{
			name:     "english text",
			text:     "Hello, this is a test in English.",
			wantCode: "en",
			wantOK:   true,
		},
		{
			name:     "japanese text",
			text:     "ログインしてから設定画面でパスワードを変更してください。",
			wantCode: "ja",
			wantOK:   true,
		},
		{
			name:     "german text",
			text:     "Hallo, das ist ein Test auf Deutsch.",
			wantCode: "de",
			wantOK:   true,
		},
		{
			name:     "french text",
			text:     "Bonjour, ceci est un test en français.",
			wantCode: "fr",
			wantOK:   true,
		},
		{
			name:     "spanish text",
			text:     "Hola, esto es una prueba en español.",
			wantCode: "es",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := d.DetectISO(tt.text)
			if ok != tt.wantOK {
				t.Errorf("DetectISO(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
				return
			}
			if tt.wantOK && code != tt.wantCode {
				t.Errorf("DetectISO(%q) = %q, want %q", tt.text, code, tt.wantCode)
			}
		})
	}
}

func TestDetector_DetectBatch(t *testing.T) {
	d := New()

	code, ok := d.DetectBatch([]string{"로그인", "", "회원가입", "비밀번호를 잊으셨나요?"})
	if !ok {
		t.Fatal("expected batch to be detected")
	}
	if code != "ko" {
		t.Errorf("expected ko, got %q", code)
	}

	if _, ok := d.DetectBatch([]string{" ", ""}); ok {
		t.Error("expected blank batch to be undetected")
	}
}

func TestDetector_ShortText(t *testing.T) {
	d := New()

	code, ok := d.DetectISO("OK")
	// Short text may or may not be detected, just check it doesn't panic
	_ = code
	_ = ok
}
