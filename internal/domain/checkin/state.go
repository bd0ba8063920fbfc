package checkin

type Action string

const (
	ActionCheckIn  Action = "check-in"
	ActionCheckOut Action = "check-out"
)

// State is the desk flow state. Only the types below implement it.
type State interface {
	Name() string
	isState()
}

type Idle struct{}

type Scanning struct {
	DeviceID string
}

type Validating struct {
	Kind      Kind
	LookupKey string
}

type Validated struct {
	Record    Record
	LookupKey string
}

type CheckingIn struct {
	Record Record
	Action Action
}

type Done struct {
	Record  Record
	Action  Action
	Message string
}

type Failed struct {
	Reason error
}

func (Idle) Name() string       { return "idle" }
func (Scanning) Name() string   { return "scanning" }
func (Validating) Name() string { return "validating" }
func (Validated) Name() string  { return "validated" }
func (CheckingIn) Name() string { return "checking-in" }
func (Done) Name() string       { return "done" }
func (Failed) Name() string     { return "error" }

func (Idle) isState()       {}
func (Scanning) isState()   {}
func (Validating) isState() {}
func (Validated) isState()  {}
func (CheckingIn) isState() {}
func (Done) isState()       {}
func (Failed) isState()     {}

// LoadedRecord returns the record the state currently holds, if any.
func LoadedRecord(s State) (Record, bool) {
	switch st := s.(type) {
	case Validated:
		return st.Record, st.Record != nil
	case CheckingIn:
		return st.Record, st.Record != nil
	}

	return nil, false
}
