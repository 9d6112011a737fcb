package positions

// Position is a fielding/role assignment. The empty string means
// "no position assigned".
type Position string

const (
	Pitcher     Position = "P"
	Catcher     Position = "C"
	FirstBase   Position = "1B"
	SecondBase  Position = "2B"
	ThirdBase   Position = "3B"
	Shortstop   Position = "SS"
	LeftField   Position = "LF"
	CenterField Position = "CF"
	RightField  Position = "RF"

	DesignatedHitter Position = "DH"
	ExtraHitter      Position = "EH"
	Flex             Position = "FLEX"
	DesignatedPlayer Position = "DP"
)

// Standard positions are exclusive: one occupant on the field at a time.
var Standard = []Position{
	Pitcher, Catcher,
	FirstBase, SecondBase, ThirdBase, Shortstop,
	LeftField, CenterField, RightField,
}

// Special positions are role slots (hitter-only and flex roles). They are
// still tracked for conflicts but some rule sets allow sharing them.
var Special = []Position{
	DesignatedHitter, ExtraHitter, Flex, DesignatedPlayer,
}

var labels = map[Position]string{
	Pitcher:          "Pitcher",
	Catcher:          "Catcher",
	FirstBase:        "First Base",
	SecondBase:       "Second Base",
	ThirdBase:        "Third Base",
	Shortstop:        "Shortstop",
	LeftField:        "Left Field",
	CenterField:      "Center Field",
	RightField:       "Right Field",
	DesignatedHitter: "Designated Hitter",
	ExtraHitter:      "Extra Hitter",
	Flex:             "Flex Player",
	DesignatedPlayer: "Designated Player",
}

// Label returns the display name for a position, or the raw code if the
// position is unknown.
func Label(p Position) string {
	if l, ok := labels[p]; ok {
		return l
	}
	return string(p)
}

// Valid reports whether p is a known position. The empty position is
// valid: it means the slot has no assignment yet.
func Valid(p Position) bool {
	if p == "" {
		return true
	}
	_, ok := labels[p]
	return ok
}

// IsStandard reports whether p is one of the exclusive field positions.
func IsStandard(p Position) bool {
	for _, s := range Standard {
		if s == p {
			return true
		}
	}
	return false
}

// Parse converts a raw string into a Position, mapping unknown values to
// the empty position rather than failing. Roster imports carry free-form
// position text.
func Parse(raw string) Position {
	p := Position(raw)
	if !Valid(p) {
		return ""
	}
	return p
}
