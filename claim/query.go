package claim

import (
	"context"
	"fmt"
	"sort"
)

// SortKey selects the listing order.
type SortKey string

const (
	// SortByDateSubmitted orders newest submissions first.
	SortByDateSubmitted SortKey = "date_submitted"
	// SortByID orders highest identifiers first.
	SortByID SortKey = "id"
)

// List returns a fresh snapshot of all claims in descending order of the
// given key. Ties on submission date break towards the higher identifier.
// Every role sees the full set; role-based filtering is a presentation
// concern.
func (s *Service) List(ctx context.Context, key SortKey) ([]Claim, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("claim: list: %w", err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if key == SortByID {
			return items[i].ID > items[j].ID
		}
		if items[i].DateSubmitted.Equal(items[j].DateSubmitted) {
			return items[i].ID > items[j].ID
		}
		return items[i].DateSubmitted.After(items[j].DateSubmitted)
	})

	return items, nil
}
