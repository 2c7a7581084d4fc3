package power

// FakeShutdowner counts power-off requests.
type FakeShutdowner struct {
	// Calls counts PowerOff invocations, including failed ones.
	Calls int

	// Err, if set, is returned by PowerOff.
	Err error
}

// PowerOff records the request.
func (f *FakeShutdowner) PowerOff() error {
	f.Calls++
	return f.Err
}
