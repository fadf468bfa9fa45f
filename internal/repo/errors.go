package repo

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
	// ErrSelfDelete — нельзя удалить собственный аккаунт.
	ErrSelfDelete = errors.New("cannot delete own account")
	// ErrHasContent — у пользователя остались комментарии/ответы.
	ErrHasContent = errors.New("user still referenced by content")
)
