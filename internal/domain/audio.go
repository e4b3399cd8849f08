package domain

// AudioStream holds synthesized speech generated for a single request.
type AudioStream struct {
	Data     []byte
	MIMEType string
	Provider string
}

func (a *AudioStream) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}
