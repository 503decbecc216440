package service

import (
	"context"
	"fmt"

	"github.com/sifan077/tinylink/internal/app/repository"
)

// CodeFilter remembers codes known to be taken. MayContain may report false
// positives but never false negatives for codes passed to Add, so it is only
// ever used to reject a generated candidate early, never to accept one.
type CodeFilter interface {
	Add(code string)
	MayContain(code string) bool
}

// WarmCodeFilter loads every stored code into filter and returns how many
// were added.
func WarmCodeFilter(ctx context.Context, repo repository.LinkRepository, filter CodeFilter) (int, error) {
	codes, err := repo.ListCodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("warm code filter: %w", err)
	}
	for _, code := range codes {
		filter.Add(code)
	}
	return len(codes), nil
}
