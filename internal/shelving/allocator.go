package shelving

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bookhavenhq/bookhaven-backend/pkg/config"
	"github.com/bookhavenhq/bookhaven-backend/pkg/db/models"
	"github.com/bookhavenhq/bookhaven-backend/pkg/errors"
)

// Allocator packs books onto shelves and audits existing assignments.
//
// Optimize is an exact 0/1 knapsack over weights discretized to grams, so its
// cost is candidates × capacity-in-grams. FindDangerousCombinations
// enumerates subsets of a shelf's assigned books, which is exponential;
// shelves are a bounded physical resource, so the shelf occupancy cap keeps
// that tractable. Both bounds are configuration, not hidden constants, and
// exceeding them is reported rather than silently degraded.
type Allocator struct {
	maxCandidates    int
	maxCapacityGrams int
	maxScanBooks     int
	threshold        decimal.Decimal
}

// NewAllocator builds an allocator from the shelving configuration.
func NewAllocator(cfg config.ShelvingConfig) (*Allocator, error) {
	if cfg.MaxOptimizeCandidates <= 0 {
		return nil, fmt.Errorf("max optimize candidates must be positive")
	}
	if cfg.MaxCapacityGrams <= 0 {
		return nil, fmt.Errorf("max capacity grams must be positive")
	}
	if cfg.MaxScanBooks <= 0 {
		return nil, fmt.Errorf("max scan books must be positive")
	}
	threshold := cfg.SafetyThresholdRatio()
	if threshold.Sign() <= 0 {
		return nil, fmt.Errorf("safety threshold must be positive")
	}
	return &Allocator{
		maxCandidates:    cfg.MaxOptimizeCandidates,
		maxCapacityGrams: cfg.MaxCapacityGrams,
		maxScanBooks:     cfg.MaxScanBooks,
		threshold:        threshold,
	}, nil
}

// OptimizeResult is the best-value packing for one shelf.
type OptimizeResult struct {
	Books         []models.Book   `json:"books"`
	TotalWeightKG decimal.Decimal `json:"total_weight_kg"`
	TotalValue    decimal.Decimal `json:"total_value"`
	MaxWeightKG   decimal.Decimal `json:"max_weight_kg"`
}

// ShelfSnapshot is the in-memory view the danger scan operates on.
type ShelfSnapshot struct {
	Code        string
	MaxWeightKG decimal.Decimal
	Books       []models.Book
}

// DangerousCombination is one minimal subset of a shelf's books whose
// combined weight exceeds the safety threshold.
type DangerousCombination struct {
	ShelfCode     string          `json:"shelf_code"`
	Books         []models.Book   `json:"books"`
	TotalWeightKG decimal.Decimal `json:"total_weight_kg"`
}

// DangerReport aggregates a full scan. TruncatedShelves names shelves whose
// occupancy exceeded the enumeration cap and were skipped.
type DangerReport struct {
	Combinations     []DangerousCombination `json:"combinations"`
	TruncatedShelves []string               `json:"truncated_shelves,omitempty"`
}

// itemGrams converts an item weight to whole grams, rounding up so the
// discretized weight never understates the true decimal weight.
func itemGrams(weightKG decimal.Decimal) int {
	g := int(weightKG.Mul(decimal.NewFromInt(1000)).Ceil().IntPart())
	if g < 1 {
		g = 1
	}
	return g
}

// capacityGrams converts a shelf limit to whole grams, rounding down so the
// discretized capacity never overstates the true limit. Rounding items up and
// capacity down means any selection that fits in grams fits in decimal too.
func capacityGrams(maxWeightKG decimal.Decimal) int {
	g := int(maxWeightKG.Mul(decimal.NewFromInt(1000)).Floor().IntPart())
	if g < 0 {
		g = 0
	}
	return g
}

// selection is one feasible subset tracked by the knapsack DP.
type selection struct {
	valid       bool
	value       decimal.Decimal
	weightGrams int
	ids         []string
}

// better ranks selections: higher value, then lower weight, then the
// lexicographically smallest sorted id list. The last rule makes the optimum
// unique, so repeated runs over the same input always agree.
func better(a, b selection) bool {
	if !b.valid {
		return a.valid
	}
	if !a.valid {
		return false
	}
	if cmp := a.value.Cmp(b.value); cmp != 0 {
		return cmp > 0
	}
	if a.weightGrams != b.weightGrams {
		return a.weightGrams < b.weightGrams
	}
	return lessIDs(a.ids, b.ids)
}

func lessIDs(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// Optimize selects the subset of candidates with maximal total value whose
// total weight fits within maxWeightKG. The solution is exact, not greedy.
// Candidates that alone exceed the shelf are excluded up front.
func (a *Allocator) Optimize(maxWeightKG decimal.Decimal, candidates []models.Book) (*OptimizeResult, error) {
	if maxWeightKG.Sign() <= 0 {
		return nil, errors.New(errors.CodeValidation, "shelf max weight must be positive")
	}
	if len(candidates) > a.maxCandidates {
		return nil, errors.New(errors.CodeValidation,
			fmt.Sprintf("too many candidates for exact optimization: %d > %d", len(candidates), a.maxCandidates))
	}

	capacity := capacityGrams(maxWeightKG)
	if capacity > a.maxCapacityGrams {
		return nil, errors.New(errors.CodeValidation,
			fmt.Sprintf("shelf capacity %dg exceeds optimizer bound %dg", capacity, a.maxCapacityGrams))
	}

	// Processing in id order makes every tracked id list sorted, which the
	// lexicographic tie-break relies on.
	feasible := make([]models.Book, 0, len(candidates))
	for _, book := range candidates {
		if itemGrams(book.WeightKG) <= capacity {
			feasible = append(feasible, book)
		}
	}
	sort.Slice(feasible, func(i, j int) bool {
		return feasible[i].ID.String() < feasible[j].ID.String()
	})

	dp := make([]selection, capacity+1)
	dp[0] = selection{valid: true, value: decimal.Zero}

	for _, book := range feasible {
		w := itemGrams(book.WeightKG)
		id := book.ID.String()
		for weight := capacity; weight >= w; weight-- {
			prev := dp[weight-w]
			if !prev.valid {
				continue
			}
			candidate := selection{
				valid:       true,
				value:       prev.value.Add(book.Value),
				weightGrams: weight,
				ids:         append(append(make([]string, 0, len(prev.ids)+1), prev.ids...), id),
			}
			if better(candidate, dp[weight]) {
				dp[weight] = candidate
			}
		}
	}

	best := dp[0]
	for weight := 1; weight <= capacity; weight++ {
		if better(dp[weight], best) {
			best = dp[weight]
		}
	}

	chosen := make(map[string]bool, len(best.ids))
	for _, id := range best.ids {
		chosen[id] = true
	}

	result := &OptimizeResult{
		Books:         make([]models.Book, 0, len(best.ids)),
		TotalWeightKG: decimal.Zero,
		TotalValue:    decimal.Zero,
		MaxWeightKG:   maxWeightKG,
	}
	for _, book := range feasible {
		if chosen[book.ID.String()] {
			result.Books = append(result.Books, book)
			result.TotalWeightKG = result.TotalWeightKG.Add(book.WeightKG)
			result.TotalValue = result.TotalValue.Add(book.Value)
		}
	}
	return result, nil
}

// FindDangerousCombinations reports, per shelf, every minimal subset of
// assigned books whose combined weight exceeds threshold × maxWeight.
// Minimal means removing any single book gets the subset back under the
// threshold, so the report names exactly the smallest offending groups.
func (a *Allocator) FindDangerousCombinations(shelves []ShelfSnapshot) *DangerReport {
	report := &DangerReport{Combinations: []DangerousCombination{}}

	for _, shelf := range shelves {
		if len(shelf.Books) == 0 {
			continue
		}
		if len(shelf.Books) > a.maxScanBooks {
			report.TruncatedShelves = append(report.TruncatedShelves, shelf.Code)
			continue
		}

		limit := shelf.MaxWeightKG.Mul(a.threshold)

		books := make([]models.Book, len(shelf.Books))
		copy(books, shelf.Books)
		sort.Slice(books, func(i, j int) bool {
			return books[i].ID.String() < books[j].ID.String()
		})

		weights := make([]decimal.Decimal, len(books))
		for i, book := range books {
			weights[i] = book.WeightKG
		}

		for mask := 1; mask < (1 << len(books)); mask++ {
			total := decimal.Zero
			for i := range books {
				if mask&(1<<i) != 0 {
					total = total.Add(weights[i])
				}
			}
			if total.Cmp(limit) <= 0 {
				continue
			}

			minimal := true
			for i := range books {
				if mask&(1<<i) == 0 {
					continue
				}
				if total.Sub(weights[i]).Cmp(limit) > 0 {
					minimal = false
					break
				}
			}
			if !minimal {
				continue
			}

			combo := DangerousCombination{
				ShelfCode:     shelf.Code,
				TotalWeightKG: total,
			}
			for i := range books {
				if mask&(1<<i) != 0 {
					combo.Books = append(combo.Books, books[i])
				}
			}
			report.Combinations = append(report.Combinations, combo)
		}
	}
	return report
}
