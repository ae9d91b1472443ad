package peer

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Run("Frames", func(t *testing.T) {
		frames := map[string]entity.Message{
			"NAME,alice;":          entity.NameMessage("alice"),
			"SIZE,4;":              entity.SizeMessage(4),
			"RULES,movement;":      entity.RulesMessage(entity.VariantMovement),
			"MOVE,5;":              entity.MoveMessage(entity.Place(5)),
			"MOVE,0,8;":            entity.MoveMessage(entity.Relocate(0, 8)),
			"WIN,O;":               entity.WinMessage(entity.PlayerO),
			"RESTART;":             entity.RestartMessage(),
			"NAME,;":               entity.NameMessage(""),
			"RULES,fifo;":          entity.RulesMessage(entity.VariantFIFO),
			"SIZE,3;":              entity.SizeMessage(3),
			"MOVE,24;":             entity.MoveMessage(entity.Place(24)),
			"WIN,X;":               entity.WinMessage(entity.PlayerX),
			"MOVE,12,0;":           entity.MoveMessage(entity.Relocate(12, 0)),
			"NAME,Bob Smith;":      entity.NameMessage("Bob Smith"),
			"RULES,unconstrained;": entity.RulesMessage(entity.VariantUnconstrained),
		}

		for want, msg := range frames {
			frame, err := Encode(msg)

			require.NoError(t, err)
			assert.Equal(t, want, string(frame))
		}
	})

	t.Run("Names with delimiters are rejected", func(t *testing.T) {
		for _, name := range []string{"a;b", "a,b", ";"} {
			_, err := Encode(entity.NameMessage(name))
			assert.ErrorIs(t, err, ErrInvalidName)
		}
	})

	t.Run("Win needs a player", func(t *testing.T) {
		_, err := Encode(entity.WinMessage(entity.Empty))
		assert.ErrorIs(t, err, ErrMalformedMessage)
	})
}

func TestDecode(t *testing.T) {
	t.Run("Accepts what Encode produces", func(t *testing.T) {
		for _, msg := range []entity.Message{
			entity.NameMessage("carol"),
			entity.SizeMessage(5),
			entity.RulesMessage(entity.VariantFIFO),
			entity.MoveMessage(entity.Place(0)),
			entity.MoveMessage(entity.Relocate(3, 7)),
			entity.WinMessage(entity.PlayerX),
			entity.RestartMessage(),
		} {
			frame, err := Encode(msg)
			require.NoError(t, err)

			decoded, err := Decode(strings.TrimSuffix(string(frame), ";"))

			require.NoError(t, err)
			assert.Equal(t, msg, decoded)
		}
	})

	t.Run("Rejects malformed frames", func(t *testing.T) {
		for _, frame := range []string{
			"", "HELLO", "NAME", "NAME,a,b", "SIZE,four", "SIZE",
			"RULES,chess", "MOVE", "MOVE,a", "MOVE,1,2,3", "WIN,Z", "RESTART,now",
		} {
			_, err := Decode(frame)
			assert.ErrorIs(t, err, ErrMalformedMessage, "frame %q", frame)
		}
	})
}

func TestDecoder_SplitReads(t *testing.T) {
	// Given: two frames delivered one byte at a time with a stray separator between them
	stream := iotest.OneByteReader(strings.NewReader("SIZE,4;;MOVE,5;"))
	decoder := NewDecoder(stream)

	// When
	first, err := decoder.Decode()
	require.NoError(t, err)
	second, err := decoder.Decode()
	require.NoError(t, err)
	_, err = decoder.Decode()

	// Then: both frames decode and the end of the stream surfaces as EOF
	assert.Equal(t, entity.SizeMessage(4), first)
	assert.Equal(t, entity.MoveMessage(entity.Place(5)), second)
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoder_TruncatedFrame(t *testing.T) {
	decoder := NewDecoder(strings.NewReader("MOVE,5;MOVE,"))

	_, err := decoder.Decode()
	require.NoError(t, err)

	_, err = decoder.Decode()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoder_OversizedFrame(t *testing.T) {
	decoder := NewDecoder(strings.NewReader("NAME," + strings.Repeat("a", 2*maxFrameSize) + ";"))

	_, err := decoder.Decode()

	assert.ErrorIs(t, err, ErrMalformedMessage)
}
