package entity

const (
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"
)

// MatchResult is the outcome of a match. Winner is Empty for a draw or an ongoing match.
type MatchResult struct {
	Status string `json:"status"`
	Winner Mark   `json:"-"`
}

func Ongoing() MatchResult {
	return MatchResult{Status: StatusOngoing}
}

func Win(player Mark) MatchResult {
	return MatchResult{Status: StatusFinished, Winner: player}
}

func Draw() MatchResult {
	return MatchResult{Status: StatusFinished}
}

func (that MatchResult) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that MatchResult) IsDraw() bool {
	return that.IsFinished() && that.Winner == Empty
}

func (that MatchResult) String() string {
	switch {
	case !that.IsFinished():
		return StatusOngoing
	case that.IsDraw():
		return "draw"
	default:
		return "win " + that.Winner.String()
	}
}

// Score is the running tally of a session.
type Score struct {
	X     int `json:"x"`
	O     int `json:"o"`
	Draws int `json:"draws"`
}

func (that *Score) Add(result MatchResult) {
	switch {
	case !result.IsFinished():
	case result.IsDraw():
		that.Draws++
	case result.Winner == PlayerX:
		that.X++
	default:
		that.O++
	}
}

// Snapshot is an immutable view of the match pushed to the presentation layer.
// Score counts this session; Total is the stored tally for the same pairing, this session included.
type Snapshot struct {
	MatchID  string   `json:"match_id,omitempty"`
	Size     int      `json:"size"`
	Cells    []string `json:"cells"`
	Turn     string   `json:"turn"`
	Phases   []string `json:"phases"`
	Doomed   []int    `json:"doomed"`
	Status   string   `json:"status"`
	Winner   string   `json:"winner,omitempty"`
	Score    Score    `json:"score"`
	Total    Score    `json:"total"`
	Selected int      `json:"selected"`
}

// NewSnapshot copies the board. Doomed lists, per player, the oldest FIFO piece when the queue is full.
func NewSnapshot(board *Board, turn Mark, result MatchResult, score Score) Snapshot {
	cells := make([]string, len(board.Cells))
	for i, mark := range board.Cells {
		cells[i] = mark.String()
	}

	doomed := make([]int, 0, 2)
	for _, player := range []Mark{PlayerX, PlayerO} {
		queue := board.Queue(player)
		if oldest, ok := queue.Oldest(); ok && queue.IsFull() {
			doomed = append(doomed, oldest)
		}
	}

	snapshot := Snapshot{
		Size:     board.Size,
		Cells:    cells,
		Turn:     turn.String(),
		Phases:   []string{board.Phase(PlayerX).String(), board.Phase(PlayerO).String()},
		Doomed:   doomed,
		Status:   result.Status,
		Score:    score,
		Selected: NoCell,
	}

	if result.IsFinished() && !result.IsDraw() {
		snapshot.Winner = result.Winner.String()
	}

	return snapshot
}
