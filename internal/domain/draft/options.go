package draft

// Option applies a configuration option to the Balancer.
type Option func(*Balancer)

// WithMaxProposals caps the number of proposals returned.
func WithMaxProposals(n int) Option {
	return func(b *Balancer) {
		if n > 0 {
			b.maxProposals = n
		}
	}
}

// WithSubstitution enables effective scores for rosters that do not divide
// evenly: the weakest player overall is left out of the total and the
// larger team drops its own weakest player.
func WithSubstitution(enabled bool) Option {
	return func(b *Balancer) {
		b.substitution = enabled
	}
}

// WithMaxRoster sets the largest roster accepted for two teams.
func WithMaxRoster(n int) Option {
	return func(b *Balancer) {
		if n > 0 {
			b.maxRoster = n
		}
	}
}

// WithMaxRosterThreeTeams sets the largest roster accepted for three teams.
func WithMaxRosterThreeTeams(n int) Option {
	return func(b *Balancer) {
		if n > 0 {
			b.maxRosterThree = n
		}
	}
}

// WithCandidateLimit stops enumeration after n candidates and marks the
// result partial. Zero means unbounded.
func WithCandidateLimit(n int) Option {
	return func(b *Balancer) {
		if n >= 0 {
			b.candidateLimit = n
		}
	}
}

// WithRatingSigma sets the rating uncertainty used for outcome predictions.
func WithRatingSigma(sigma float64) Option {
	return func(b *Balancer) {
		if sigma > 0 {
			b.sigma = sigma
		}
	}
}
