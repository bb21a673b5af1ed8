package models

// Readiness is the backend readiness signal owned by the readiness probe.
type Readiness int

const (
	ReadinessUnknown Readiness = iota
	ReadinessReady
	ReadinessLoading
	ReadinessError
)

func (r Readiness) String() string {
	switch r {
	case ReadinessReady:
		return "ready"
	case ReadinessLoading:
		return "loading"
	case ReadinessError:
		return "error"
	default:
		return "unknown"
	}
}

// ViewFlags are the transient UI flags the renderer projects next to the turns.
type ViewFlags struct {
	Loading         bool   // loading indicator visible
	InputDisabled   bool   // text input and submit disabled
	ReadinessBanner string // status indicator text
	Crisis          bool   // support resources panel visible
}

// SessionSnapshot is a consistent copy of the chat session state.
type SessionSnapshot struct {
	Turns      []Turn
	Locked     bool
	Crisis     bool
	Alert      string
	Accepted   uint64 // number of submissions accepted so far
	Generation uint64
}

// ReadinessSnapshot is a consistent copy of the readiness probe state.
type ReadinessSnapshot struct {
	State   Readiness
	Message string
	Retries int
}

// AppModel represents the UI state - only local UI concerns
type AppModel struct {
	Session     SessionSnapshot
	Readiness   ReadinessSnapshot
	Probing     bool     // false when the profile disables the readiness probe
	Resources   []string // support resources shown in the crisis panel
	Input       string
	Status      string
	LoadingDots int
	Width       int
	Height      int
}

// Flags derives the renderer flags from the current UI state.
func (m AppModel) Flags() ViewFlags {
	notReady := m.Probing && m.Readiness.State != ReadinessReady
	return ViewFlags{
		Loading:         m.Session.Locked,
		InputDisabled:   m.Session.Locked || notReady,
		ReadinessBanner: m.Status,
		Crisis:          m.Session.Crisis,
	}
}
