package entity

type Outcome int

const (
	Ongoing Outcome = iota
	Won
	Draw
)

func (that Outcome) String() string {
	switch that {
	case Ongoing:
		return "ongoing"
	case Won:
		return "won"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// Status describes the board outcome. Winner is set only when Outcome is Won.
type Status struct {
	Outcome Outcome
	Winner  Mark
}

func (that Status) IsOngoing() bool {
	return that.Outcome == Ongoing
}

func (that Status) IsTerminal() bool {
	return that.Outcome != Ongoing
}

func (that Status) String() string {
	switch that.Outcome {
	case Won:
		return string(that.Winner) + " wins"
	case Draw:
		return "Draw"
	default:
		return "ongoing"
	}
}
