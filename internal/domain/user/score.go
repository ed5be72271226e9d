package user

const (
	MinScore     uint32 = 300
	MaxScore     uint32 = 850
	DefaultScore uint32 = 500
)

// ScorePolicy holds the score deltas applied on repayment and default.
type ScorePolicy struct {
	OnTimeReward   uint32
	LatePenalty    uint32
	DefaultPenalty uint32
}

func DefaultScorePolicy() ScorePolicy {
	return ScorePolicy{OnTimeReward: 10, LatePenalty: 20, DefaultPenalty: 100}
}

// ApplyPaymentOutcome records one repayment and moves the score.
func (sp ScorePolicy) ApplyPaymentOutcome(p *Profile, onTime bool) {
	if onTime {
		p.OnTimePayments++
		p.CreditScore = raise(p.CreditScore, sp.OnTimeReward)
		return
	}
	p.LatePayments++
	p.CreditScore = lower(p.CreditScore, sp.LatePenalty)
}

func (sp ScorePolicy) ApplyDefault(p *Profile) {
	p.TotalLoansDefaulted++
	p.CreditScore = lower(p.CreditScore, sp.DefaultPenalty)
}

func (sp ScorePolicy) ApplyCompletion(p *Profile) {
	p.TotalLoansCompleted++
	p.CreditScore = Clamp(p.CreditScore)
}

// Clamp forces s into [MinScore, MaxScore].
func Clamp(s uint32) uint32 {
	switch {
	case s < MinScore:
		return MinScore
	case s > MaxScore:
		return MaxScore
	}
	return s
}

func raise(s, delta uint32) uint32 {
	s = Clamp(s)
	if delta >= MaxScore-s {
		return MaxScore
	}
	return s + delta
}

func lower(s, delta uint32) uint32 {
	s = Clamp(s)
	if delta >= s-MinScore {
		return MinScore
	}
	return s - delta
}
