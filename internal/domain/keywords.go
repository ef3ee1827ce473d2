package domain

import "fmt"

// KeywordNotFoundError is returned when no control keyword is configured for
// a merchant account.
type KeywordNotFoundError struct {
	AccountID string
}

func (e *KeywordNotFoundError) Error() string {
	return fmt.Sprintf("no control keyword configured for account %s", e.AccountID)
}

// ControlKeywords maps merchant account ids to their biller control keywords.
// The mapping is injected from configuration so it can change without a
// redeploy.
type ControlKeywords struct {
	byAccount map[string]string
}

// NewControlKeywords builds the lookup from a configured map.
func NewControlKeywords(m map[string]string) *ControlKeywords {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return &ControlKeywords{byAccount: cp}
}

// Lookup returns the control keyword for an account.
func (c *ControlKeywords) Lookup(accountID string) (string, error) {
	kw, ok := c.byAccount[accountID]
	if !ok {
		return "", &KeywordNotFoundError{AccountID: accountID}
	}
	return kw, nil
}
