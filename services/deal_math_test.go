package services

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/whachapay/backend/models"
)

func dealsWithPrices(prices ...int) []models.Deal {
	deals := make([]models.Deal, len(prices))
	for i, p := range prices {
		deals[i] = models.Deal{Price: p}
	}
	return deals
}

func TestSumPrices(t *testing.T) {
	if sum := SumPrices(nil); sum != 0 {
		t.Errorf("empty sum should be 0, got %d", sum)
	}
	if sum := SumPrices(dealsWithPrices(100, 200, 300)); sum != 600 {
		t.Errorf("expected 600, got %d", sum)
	}
}

func TestAverage(t *testing.T) {
	cases := []struct {
		prices   []int
		expected int
	}{
		{nil, 0},
		{[]int{100, 200, 300}, 200},
		// Truncating, not rounding.
		{[]int{100, 100, 101}, 100},
		{[]int{999}, 999},
	}
	for _, tc := range cases {
		if got := Average(dealsWithPrices(tc.prices...)); got != tc.expected {
			t.Errorf("Average(%v) = %d, expected %d", tc.prices, got, tc.expected)
		}
	}
}

func TestAverageProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("average truncates toward zero and is bounded by min and max", prop.ForAll(
		func(prices []int) bool {
			deals := dealsWithPrices(prices...)
			avg := Average(deals)

			if len(prices) == 0 {
				return avg == 0
			}

			sum := SumPrices(deals)
			if avg != sum/len(prices) {
				return false
			}
			// Floor division: avg*n never exceeds the sum.
			return avg*len(prices) <= sum && sum < (avg+1)*len(prices)
		},
		gen.SliceOf(gen.IntRange(100, 1000000)),
	))

	properties.TestingRun(t)
}
