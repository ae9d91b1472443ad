package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrWaitingForPeer   = errors.New("waiting for the opponent's move")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrInvalidCell      = errors.New("invalid cell index")
	ErrNotYourPiece     = errors.New("piece does not belong to the player")
	ErrIllegalMove      = errors.New("move is not legal in the current phase")
	ErrNoAvailableMoves = errors.New("no available moves")
	ErrSearchFailed     = errors.New("computer move search failed")
	ErrProtocolDesync   = errors.New("peer replica is out of sync")
	ErrConnectionLost   = errors.New("peer connection lost")
	ErrSessionCorrupted = errors.New("peer session is corrupted")
)
