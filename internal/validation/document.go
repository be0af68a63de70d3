package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxDocumentNameLen максимальная длина имени документа
const MaxDocumentNameLen = 128

// ValidateDocumentName проверяет имя документа
// Имя не может быть пустым (после обрезки пробелов) и длиннее 128 символов
func ValidateDocumentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("document name cannot be empty")
	}

	if !utf8.ValidString(name) {
		return fmt.Errorf("document name must be valid UTF-8")
	}

	if utf8.RuneCountInString(name) > MaxDocumentNameLen {
		return fmt.Errorf("document name must not exceed %d characters", MaxDocumentNameLen)
	}

	return nil
}
