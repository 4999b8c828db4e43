package gen

// StagePlan is the ordered sequence of stages for one target. It is derived
// from a BuildTarget and never stored beyond the round that produced it.
type StagePlan struct {
	Target   *BuildTarget
	Stages   []*Stage
	Terminal *TerminalStage
}

// Stage is an intermediate contract exposing exactly one operation: the
// setter of its mandatory field, which returns the next stage.
type Stage struct {
	// Index is 1-based.
	Index int
	Name  string
	Field *Field
	// Next is the name of the contract the setter returns.
	Next string
}

// Operation returns the name of the stage's setter.
func (s *Stage) Operation() string { return s.Field.Operation() }

// TerminalStage is the final contract. Its operations return the terminal
// stage itself and it alone exposes Build.
type TerminalStage struct {
	Name string
	// Fields are the optional and collection fields in declaration order.
	Fields []*Field
}

// Entry returns the name of the contract the factory returns: the first
// stage, or the terminal stage when there are no mandatory fields.
func (p *StagePlan) Entry() string {
	if len(p.Stages) == 0 {
		return p.Terminal.Name
	}
	return p.Stages[0].Name
}

// Optional returns the optional fields of the terminal stage, in order.
func (ts *TerminalStage) Optional() []*Field {
	var fs []*Field
	for _, f := range ts.Fields {
		if f.IsOptional() {
			fs = append(fs, f)
		}
	}
	return fs
}

// Plan orders the mandatory fields of t into a linear chain of stages ending
// in the terminal stage. Planning is total for any target NewTarget accepted.
func Plan(t *BuildTarget) *StagePlan {
	p := &StagePlan{
		Target:   t,
		Terminal: &TerminalStage{Name: t.FinalStageName(), Fields: t.Terminal()},
	}
	mandatory := t.Mandatory()
	for i, f := range mandatory {
		next := t.FinalStageName()
		if i+1 < len(mandatory) {
			next = t.StageName(i + 2)
		}
		p.Stages = append(p.Stages, &Stage{
			Index: i + 1,
			Name:  t.StageName(i + 1),
			Field: f,
			Next:  next,
		})
	}
	return p
}
