// Package stake implements equal-profit stake sizing for multi-leg
// arbitrage. Given the prices of a set of mutually exclusive outcomes and a
// bankroll, it splits the bankroll so that the payout, and therefore the
// profit, is identical no matter which outcome occurs.
package stake

import "fmt"

// Stakes splits bankroll across N outcome prices so every outcome pays out
// the same amount: stake_i = bankroll * p_i / sum(p). The payout on any
// leg is then stake_i / p_i = bankroll / sum(p), which is independent of i.
func Stakes(prices []float64, bankroll float64) ([]float64, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("stake: no prices given")
	}
	var sum float64
	for i, p := range prices {
		if p <= 0 {
			return nil, fmt.Errorf("stake: price %d must be positive, got %v", i, p)
		}
		sum += p
	}
	stakes := make([]float64, len(prices))
	for i, p := range prices {
		stakes[i] = bankroll * p / sum
	}
	return stakes, nil
}

// Split2 is the two-outcome convenience form. It delegates to Stakes so the
// pairwise and N-ary paths can never diverge.
func Split2(price1, price2, bankroll float64) (stake1, stake2 float64, err error) {
	s, err := Stakes([]float64{price1, price2}, bankroll)
	if err != nil {
		return 0, 0, err
	}
	return s[0], s[1], nil
}

// Profit returns the guaranteed profit of an equal-profit allocation:
// bankroll * (1 - sum(p)) / sum(p). Negative when the prices sum above one.
func Profit(prices []float64, bankroll float64) (float64, error) {
	var sum float64
	for i, p := range prices {
		if p <= 0 {
			return 0, fmt.Errorf("stake: price %d must be positive, got %v", i, p)
		}
		sum += p
	}
	if sum == 0 {
		return 0, fmt.Errorf("stake: no prices given")
	}
	return bankroll * (1 - sum) / sum, nil
}
