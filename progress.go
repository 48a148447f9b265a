package docsafe

// Progress is one conversion status event. Error events carry the
// failure text and end the conversion they belong to.
type Progress struct {
	DocID      string
	Error      bool
	Text       string
	Percentage float64
}

// ProgressFunc receives progress events. Callbacks run on the
// converting goroutine and must return promptly.
type ProgressFunc func(Progress)
