package pqc

// Transcript builds the byte string a signature covers:
// version (1 byte) || suite name || context || parts...
func Transcript(version byte, suite, context string, parts ...[]byte) []byte {
	n := 1 + len(suite) + len(context)
	for _, p := range parts {
		n += len(p)
	}

	transcript := make([]byte, 0, n)
	transcript = append(transcript, version)
	transcript = append(transcript, suite...)
	transcript = append(transcript, context...)
	for _, p := range parts {
		transcript = append(transcript, p...)
	}
	return transcript
}
