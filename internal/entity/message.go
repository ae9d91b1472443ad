package entity

type MessageKind string

const (
	MessageName    MessageKind = "NAME"
	MessageSize    MessageKind = "SIZE"
	MessageRules   MessageKind = "RULES"
	MessageMove    MessageKind = "MOVE"
	MessageWin     MessageKind = "WIN"
	MessageRestart MessageKind = "RESTART"
)

// Message is one frame exchanged between peers. Only the fields of its Kind are set.
type Message struct {
	Kind    MessageKind
	Name    string
	Size    int
	Variant VariantKind
	Move    Move
	Winner  Mark
}

func NameMessage(name string) Message {
	return Message{Kind: MessageName, Name: name}
}

func SizeMessage(size int) Message {
	return Message{Kind: MessageSize, Size: size}
}

func RulesMessage(variant VariantKind) Message {
	return Message{Kind: MessageRules, Variant: variant}
}

func MoveMessage(move Move) Message {
	return Message{Kind: MessageMove, Move: move}
}

func WinMessage(winner Mark) Message {
	return Message{Kind: MessageWin, Winner: winner}
}

func RestartMessage() Message {
	return Message{Kind: MessageRestart}
}
