package consts

// Chat roles used in gateway requests and session history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Financial goals in canonical order. Classification ties resolve in this
// order, and GoalUnspecified is the fallback for unmatched text.
const (
	GoalRetirement  = "retirement"
	GoalHome        = "home"
	GoalVacation    = "vacation"
	GoalEducation   = "education"
	GoalUnspecified = "unspecified"
)

// Goals lists the classifiable goals in canonical order, excluding the
// unspecified fallback.
var Goals = []string{GoalRetirement, GoalHome, GoalVacation, GoalEducation}

// LLM gateway providers.
const (
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
)

// Session store backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendSQLite = "sqlite"
)

// DefaultRiskTolerance is assumed when a structured request omits the field.
const DefaultRiskTolerance = "medium"
