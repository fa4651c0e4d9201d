package ponder

// Exchange is one prior question/answer pair from the conversation.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// History carries prior exchanges into a new session so the model can
// resolve follow-up questions. It is read-only during a session; the
// caller owns accumulation across turns.
type History struct {
	Exchanges []Exchange `json:"exchanges"`
}

func (x *History) Clone() *History {
	if x == nil {
		return nil
	}
	return &History{Exchanges: append([]Exchange(nil), x.Exchanges...)}
}
