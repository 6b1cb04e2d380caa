package dsl

import (
	"regexp"
	"strings"

	"github.com/shaiso/Weft/internal/domain"
)

// headerRe — заголовок flow: `flow <Name>:`.
// Имя — любая непустая последовательность без пробелов и двоеточия.
var headerRe = regexp.MustCompile(`^flow\s+([^\s:]+)\s*:$`)

// Parse разбирает DSL-текст в FlowDefinition.
//
// Правила:
//   - Первая значимая строка обязана быть заголовком `flow <Name>:`.
//   - `description: "<текст>"` задаёт описание; учитывается только
//     первое вхождение.
//   - `A -> B` и `A -> [B, C]` добавляют по одному Connection на цель,
//     в порядке появления в тексте.
//   - Пустые строки и строки, начинающиеся с `#`, игнорируются.
//   - Любая другая значимая строка — ошибка синтаксиса.
func Parse(text string) (*domain.FlowDefinition, error) {
	def := &domain.FlowDefinition{}
	sawHeader := false
	sawDescription := false

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		lineNo := i + 1

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !sawHeader {
			m := headerRe.FindStringSubmatch(line)
			if m == nil {
				return nil, newParseError(lineNo, line, ErrMalformedHeader)
			}
			def.Name = m[1]
			sawHeader = true
			continue
		}

		if rest, ok := strings.CutPrefix(line, "description:"); ok {
			if !sawDescription {
				def.Description = unquote(strings.TrimSpace(rest))
				sawDescription = true
			}
			continue
		}

		conns, err := parseConnection(line)
		if err != nil {
			return nil, newParseError(lineNo, line, err)
		}
		def.Connections = append(def.Connections, conns...)
	}

	if !sawHeader {
		return nil, ErrEmptyDefinition
	}
	return def, nil
}

// parseConnection разбирает строку вида `A -> B` или `A -> [B, C]`.
func parseConnection(line string) ([]domain.Connection, error) {
	source, rest, found := strings.Cut(line, "->")
	if !found {
		return nil, ErrConnectionSyntax
	}

	source = strings.TrimSpace(source)
	rest = strings.TrimSpace(rest)
	if source == "" || rest == "" || strings.Contains(rest, "->") {
		return nil, ErrConnectionSyntax
	}

	targets := []string{rest}
	if strings.HasPrefix(rest, "[") {
		if !strings.HasSuffix(rest, "]") {
			return nil, ErrConnectionSyntax
		}
		targets = strings.Split(rest[1:len(rest)-1], ",")
	}

	conns := make([]domain.Connection, 0, len(targets))
	for _, t := range targets {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, ErrConnectionSyntax
		}
		conns = append(conns, domain.Connection{Source: source, Target: t})
	}
	return conns, nil
}

// unquote снимает обрамляющие двойные кавычки, если они есть.
func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
