package prompt

import (
	"strings"
	"unicode/utf8"
)

// Element types reported by DetectElement.
const (
	ElementButton      = "button"
	ElementTitle       = "title"
	ElementMessage     = "message"
	ElementDescription = "description"
	ElementLabel       = "label"
)

// Tones reported by DetectTone.
const (
	ToneFormal       = "formal"
	ToneProfessional = "professional"
	ToneCasual       = "casual"
	ToneFriendly     = "friendly"
)

var (
	buttonWords       = []string{"클릭", "선택", "확인", "취소", "저장", "삭제", "추가", "등록"}
	messageWords      = []string{"오류", "성공", "완료", "실패"}
	formalWords       = []string{"하십시오", "바랍니다", "드립니다"}
	professionalWords = []string{"시스템", "데이터", "프로세스"}
	casualWords       = []string{"해봐", "해보자", "ㅎㅎ", "!"}
)

// DetectElement guesses which kind of UI element text belongs to.
func DetectElement(text string) string {
	n := utf8.RuneCountInString(text)
	switch {
	case containsAny(text, buttonWords) || n < 10:
		return ElementButton
	case n < 30 && !strings.ContainsAny(text, ".?"):
		return ElementTitle
	case containsAny(text, messageWords):
		return ElementMessage
	case n > 50:
		return ElementDescription
	default:
		return ElementLabel
	}
}

// DetectTone guesses the register text is written in.
func DetectTone(text string) string {
	switch {
	case containsAny(text, formalWords):
		return ToneFormal
	case containsAny(text, professionalWords):
		return ToneProfessional
	case containsAny(text, casualWords):
		return ToneCasual
	default:
		return ToneFriendly
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
