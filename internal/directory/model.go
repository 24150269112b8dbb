package directory

// Provider is an immutable catalog entry owned by the provider directory.
// The engine references providers by id and never mutates them.
type Provider struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Specialties    []string `json:"specialties"`
	BasePriceCents int64    `json:"base_price_cents"`
	AcceptedPayers []string `json:"accepted_payers"`
}

// AcceptsPayer reports whether the provider's network includes the payer.
func (p *Provider) AcceptsPayer(payer string) bool {
	for _, accepted := range p.AcceptedPayers {
		if accepted == payer {
			return true
		}
	}
	return false
}
