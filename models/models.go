package models

// Turn is one role-tagged message in a session's chat history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnRequest is the single inbound request shape. A request carries either
// free text in Message, a structured budget bundle, or both; Stock optionally
// forces a live quote for a symbol.
type TurnRequest struct {
	Message string `json:"message,omitempty"`
	Stock   string `json:"stock,omitempty"`

	Income          *float64 `json:"income,omitempty"`
	Expenses        *float64 `json:"expenses,omitempty"`
	SavingsGoal     *float64 `json:"savings_goal,omitempty"`
	RiskTolerance   string   `json:"risk_tolerance,omitempty"`
	Age             *int     `json:"age,omitempty"`
	MonthlyDebt     *float64 `json:"monthly_debt,omitempty"`
	ExistingSavings *float64 `json:"existing_savings,omitempty"`
	FinancialGoal   string   `json:"financial_goal,omitempty"`
}

// HasStructured reports whether the request carries any structured field.
func (r *TurnRequest) HasStructured() bool {
	return r.Income != nil || r.Expenses != nil || r.SavingsGoal != nil ||
		r.Age != nil || r.MonthlyDebt != nil || r.ExistingSavings != nil ||
		r.RiskTolerance != "" || r.FinancialGoal != ""
}

// TurnResponse is the outbound envelope: Response on success, Error on failure.
type TurnResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// UserProfile is the accumulated financial profile for one session. Every
// field is independently optional; a set field is only replaced by a later
// explicit extraction for the same field, never cleared implicitly.
type UserProfile struct {
	Age             *int     `json:"age,omitempty"`
	Income          *float64 `json:"income,omitempty"`
	Expenses        *float64 `json:"expenses,omitempty"`
	SavingsGoal     *float64 `json:"savings_goal,omitempty"`
	MonthlyDebt     *float64 `json:"monthly_debt,omitempty"`
	ExistingSavings *float64 `json:"existing_savings,omitempty"`
	FinancialGoal   string   `json:"financial_goal,omitempty"`
	RiskTolerance   string   `json:"risk_tolerance,omitempty"`
}

// FactSet is a partial profile produced by extraction or by a structured
// request. Only non-nil (or non-empty) fields participate in a merge.
type FactSet struct {
	Age             *int
	Income          *float64
	Expenses        *float64
	SavingsGoal     *float64
	MonthlyDebt     *float64
	ExistingSavings *float64
	FinancialGoal   string
	RiskTolerance   string
}

// Empty reports whether the fact set carries nothing to merge.
func (f *FactSet) Empty() bool {
	return f.Age == nil && f.Income == nil && f.Expenses == nil &&
		f.SavingsGoal == nil && f.MonthlyDebt == nil && f.ExistingSavings == nil &&
		f.FinancialGoal == "" && f.RiskTolerance == ""
}

// Merge applies the fact set onto a profile, overwriting only the fields the
// set carries. The profile is modified in place; the merge is total per call.
func (f *FactSet) Merge(p *UserProfile) {
	if f.Age != nil {
		p.Age = f.Age
	}
	if f.Income != nil {
		p.Income = f.Income
	}
	if f.Expenses != nil {
		p.Expenses = f.Expenses
	}
	if f.SavingsGoal != nil {
		p.SavingsGoal = f.SavingsGoal
	}
	if f.MonthlyDebt != nil {
		p.MonthlyDebt = f.MonthlyDebt
	}
	if f.ExistingSavings != nil {
		p.ExistingSavings = f.ExistingSavings
	}
	if f.FinancialGoal != "" {
		p.FinancialGoal = f.FinancialGoal
	}
	if f.RiskTolerance != "" {
		p.RiskTolerance = f.RiskTolerance
	}
}

// Clone returns a deep copy so callers can mutate a snapshot without touching
// stored state.
func (p *UserProfile) Clone() *UserProfile {
	out := &UserProfile{
		FinancialGoal: p.FinancialGoal,
		RiskTolerance: p.RiskTolerance,
	}
	out.Age = cloneInt(p.Age)
	out.Income = cloneFloat(p.Income)
	out.Expenses = cloneFloat(p.Expenses)
	out.SavingsGoal = cloneFloat(p.SavingsGoal)
	out.MonthlyDebt = cloneFloat(p.MonthlyDebt)
	out.ExistingSavings = cloneFloat(p.ExistingSavings)
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
