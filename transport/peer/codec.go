package peer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
)

const (
	terminator = ';'
	separator  = ","

	maxFrameSize = 512
)

var (
	ErrMalformedMessage = errors.New("malformed peer message")
	ErrInvalidName      = errors.New("name must not contain ';' or ','")
)

// Encode renders a message as one terminated frame.
func Encode(msg entity.Message) ([]byte, error) {
	var fields []string

	switch msg.Kind {
	case entity.MessageName:
		if strings.ContainsAny(msg.Name, ";,") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidName, msg.Name)
		}
		fields = []string{string(msg.Kind), msg.Name}
	case entity.MessageSize:
		fields = []string{string(msg.Kind), strconv.Itoa(msg.Size)}
	case entity.MessageRules:
		fields = []string{string(msg.Kind), string(msg.Variant)}
	case entity.MessageMove:
		fields = []string{string(msg.Kind)}
		if !msg.Move.IsPlacement() {
			fields = append(fields, strconv.Itoa(msg.Move.From))
		}
		fields = append(fields, strconv.Itoa(msg.Move.To))
	case entity.MessageWin:
		if !msg.Winner.IsPlayer() {
			return nil, fmt.Errorf("%w: winner %d", ErrMalformedMessage, msg.Winner)
		}
		fields = []string{string(msg.Kind), msg.Winner.String()}
	case entity.MessageRestart:
		fields = []string{string(msg.Kind)}
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrMalformedMessage, msg.Kind)
	}

	return []byte(strings.Join(fields, separator) + string(terminator)), nil
}

// Decode parses a frame without its terminator.
func Decode(frame string) (entity.Message, error) {
	fields := strings.Split(strings.TrimSpace(frame), separator)

	malformed := func(err error) (entity.Message, error) {
		if err != nil {
			return entity.Message{}, fmt.Errorf("%w: %q: %w", ErrMalformedMessage, frame, err)
		}
		return entity.Message{}, fmt.Errorf("%w: %q", ErrMalformedMessage, frame)
	}

	switch kind := entity.MessageKind(fields[0]); kind {
	case entity.MessageName:
		if len(fields) != 2 {
			return malformed(nil)
		}
		return entity.NameMessage(fields[1]), nil

	case entity.MessageSize:
		if len(fields) != 2 {
			return malformed(nil)
		}
		size, err := strconv.Atoi(fields[1])
		if err != nil {
			return malformed(err)
		}
		return entity.SizeMessage(size), nil

	case entity.MessageRules:
		if len(fields) != 2 {
			return malformed(nil)
		}
		variant, err := entity.ParseVariant(fields[1])
		if err != nil {
			return malformed(err)
		}
		return entity.RulesMessage(variant), nil

	case entity.MessageMove:
		cells := make([]int, 0, 2)
		for _, field := range fields[1:] {
			cell, err := strconv.Atoi(field)
			if err != nil {
				return malformed(err)
			}
			cells = append(cells, cell)
		}
		switch len(cells) {
		case 1:
			return entity.MoveMessage(entity.Place(cells[0])), nil
		case 2:
			return entity.MoveMessage(entity.Relocate(cells[0], cells[1])), nil
		default:
			return malformed(nil)
		}

	case entity.MessageWin:
		if len(fields) != 2 {
			return malformed(nil)
		}
		winner, err := entity.ParseMark(fields[1])
		if err != nil {
			return malformed(err)
		}
		return entity.WinMessage(winner), nil

	case entity.MessageRestart:
		if len(fields) != 1 {
			return malformed(nil)
		}
		return entity.RestartMessage(), nil

	default:
		return malformed(nil)
	}
}

// Decoder splits a byte stream into frames regardless of how reads are chunked.
type Decoder struct {
	reader *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: bufio.NewReaderSize(r, maxFrameSize)}
}

// Decode blocks until a full frame arrives. Empty frames are skipped.
func (that *Decoder) Decode() (entity.Message, error) {
	for {
		frame, err := that.reader.ReadSlice(terminator)
		if errors.Is(err, bufio.ErrBufferFull) {
			return entity.Message{}, fmt.Errorf("%w: frame exceeds %d bytes", ErrMalformedMessage, maxFrameSize)
		}
		if err != nil {
			return entity.Message{}, err
		}

		frame = bytes.TrimSpace(bytes.TrimSuffix(frame, []byte{terminator}))
		if len(frame) == 0 {
			continue
		}

		return Decode(string(frame))
	}
}
