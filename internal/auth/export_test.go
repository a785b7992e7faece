package auth

import "time"

// SetClock overrides the time source used for issuing and validating tokens.
func (m *TokenManager) SetClock(now func() time.Time) { m.now = now }
