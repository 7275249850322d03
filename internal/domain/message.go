package domain

// Button is a discrete reply option offered by the dialogue service.
type Button struct {
	Title   string
	Payload string
}

// Message is one output of the dialogue service. It is either a TextMessage
// or an OptionsMessage; use NewMessage to pick the right variant.
type Message interface {
	Content() string
	isMessage()
}

type TextMessage struct {
	Text string
}

func (m TextMessage) Content() string { return m.Text }
func (TextMessage) isMessage()        {}

// OptionsMessage carries at least one button.
type OptionsMessage struct {
	Text    string
	Buttons []Button
}

func (m OptionsMessage) Content() string { return m.Text }
func (OptionsMessage) isMessage()        {}

func NewMessage(text string, buttons []Button) Message {
	if len(buttons) == 0 {
		return TextMessage{Text: text}
	}
	return OptionsMessage{Text: text, Buttons: buttons}
}
