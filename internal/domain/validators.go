package domain

import (
	"fmt"
	"regexp"
)

var handleRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,32}$`)

// ValidateHandle checks the human user handle shape.
func ValidateHandle(handle string) error {
	if !handleRe.MatchString(handle) {
		return fmt.Errorf("user_id must be 3-32 characters of letters, digits, '_', '.', '-'")
	}
	return nil
}

// ValidateCard checks that a card number lies in the outcome space.
func ValidateCard(n int) error {
	if n < 1 || n > CardCount {
		return fmt.Errorf("card_number %d out of range 1..%d", n, CardCount)
	}
	return nil
}

// ValidateBets checks a place-bet payload against the slip shape rules:
// 1..12 entries, distinct in-range cards, every amount positive and within
// the per-card limit. Returns the slip total.
func ValidateBets(bets []BetInput, maxPerCard int64) (total int64, err error) {
	if len(bets) == 0 {
		return 0, ErrValidation("at least one bet is required")
	}
	if len(bets) > CardCount {
		return 0, ErrValidation(fmt.Sprintf("at most %d bets per slip", CardCount))
	}

	seen := make(map[int]bool, len(bets))
	for _, b := range bets {
		if err := ValidateCard(b.CardNumber); err != nil {
			return 0, ErrValidation(err.Error())
		}
		if seen[b.CardNumber] {
			return 0, ErrValidation(fmt.Sprintf("duplicate card_number %d", b.CardNumber))
		}
		seen[b.CardNumber] = true

		if b.BetAmount <= 0 {
			return 0, ErrValidation(fmt.Sprintf("bet_amount for card %d must be positive", b.CardNumber))
		}
		if b.BetAmount > maxPerCard {
			return 0, ErrOverLimit(maxPerCard)
		}
		total += b.BetAmount
	}
	return total, nil
}

// ValidatePositiveAmount rejects non-positive wallet movements.
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return ErrValidation("amount must be positive")
	}
	return nil
}
