package validator

import (
	"testing"
)

func TestIsValid_EmptyTargetLang(t *testing.T) {
	v := New(nil)

	valid, err := v.IsValid("Some translated text", "")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !valid {
		t.Error("expected valid=true for empty targetLang")
	}
}

func TestIsValid_EmptyTranslation(t *testing.T) {
	v := New(nil)

	for _, text := range []string{"", "   "} {
		valid, err := v.IsValid(text, "en")
		if err == nil {
			t.Errorf("expected error for translation %q", text)
		}
		if valid {
			t.Errorf("expected valid=false for translation %q", text)
		}
	}
}

func TestIsValid_ShortText(t *testing.T) {
	v := New(nil)

	valid, err := v.IsValid("로그인", "en")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !valid {
		t.Error("expected short text to pass without detection")
	}
}

func TestIsValid_EnglishToEnglish(t *testing.T) {
	v := New(nil)

	text := "Your changes have been saved. You can close this window now."
	valid, err := v.IsValid(text, "en")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !valid {
		t.Error("expected valid=true when detecting English as English")
	}
}

func TestIsValid_UntranslatedKorean(t *testing.T) {
	v := New(nil)

	text := "변경 사항이 저장되었습니다. 이제 이 창을 닫아도 됩니다."
	valid, err := v.IsValid(text, "en")
	if err == nil {
		t.Error("expected error for text left in Korean")
	}
	if valid {
		t.Error("expected valid=false for text left in Korean")
	}
}

func TestCheck(t *testing.T) {
	v := New(nil)

	texts := []string{
		"Save",
		"Your changes have been saved. You can close this window now.",
		"변경 사항이 저장되었습니다. 이제 이 창을 닫아도 됩니다.",
	}
	got := v.Check(texts, "en")
	if len(got) != 1 || got[0].Index != 2 {
		t.Fatalf("expected one mismatch at index 2, got %+v", got)
	}
}
