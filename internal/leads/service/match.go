package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"leadmarket_backend/internal/leads/repository"
)

// duplicateThreshold is the minimum Levenshtein similarity ratio for two
// full names to count as the same person.
const duplicateThreshold = 0.8

// FindDuplicate looks for an existing campaign lead with the same person's
// name. Exact match (case-insensitive) wins; otherwise the candidate with the
// highest similarity at or above the threshold is returned. The boolean
// reports whether a duplicate was found.
func (s *Service) FindDuplicate(ctx context.Context, campaignID uuid.UUID, firstName, lastName string) (repository.Lead, bool, error) {
	probe := normalizeFullName(firstName, lastName)
	if probe == "" {
		return repository.Lead{}, false, nil
	}

	candidates, err := s.repo.FindByName(ctx, campaignID, lastName)
	if err != nil {
		return repository.Lead{}, false, err
	}

	var best repository.Lead
	bestScore := 0.0
	for _, candidate := range candidates {
		name := normalizeFullName(candidate.FirstName, candidate.LastName)
		if name == probe {
			return candidate, true, nil
		}
		if score := similarity(probe, name); score >= duplicateThreshold && score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	if bestScore > 0 {
		return best, true, nil
	}
	return repository.Lead{}, false, nil
}

func normalizeFullName(firstName, lastName string) string {
	full := strings.TrimSpace(strings.ToLower(firstName) + " " + strings.ToLower(lastName))
	return strings.Join(strings.Fields(full), " ")
}

// similarity is 1 - distance/longerLength, in [0, 1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes edit distance over runes with a two-row table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	previous := make([]int, len(rb)+1)
	current := make([]int, len(rb)+1)
	for j := range previous {
		previous[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		current[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			current[j] = min3(
				previous[j]+1,
				current[j-1]+1,
				previous[j-1]+cost,
			)
		}
		previous, current = current, previous
	}

	return previous[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
