package notify

import (
	"context"
	"regexp"

	"pinco/internal/models"
)

var mentionRe = regexp.MustCompile(`@([A-Za-z0-9_.-]+)`)

// ExtractMentions — @-имена из свободного текста, без дубликатов,
// в порядке появления.
func ExtractMentions(text string) []string {
	matches := mentionRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

type mentionUsers interface {
	GetActiveByUsernames(ctx context.Context, names []string) ([]models.User, error)
}

// ResolveMentions возвращает активных пользователей по упоминаниям.
// Неизвестные и неактивные имена молча отбрасываются.
func ResolveMentions(ctx context.Context, users mentionUsers, text string) ([]models.User, error) {
	names := ExtractMentions(text)
	if len(names) == 0 {
		return nil, nil
	}
	return users.GetActiveByUsernames(ctx, names)
}
