package pqc

import (
	"bytes"
	"testing"
)

func TestTranscript(t *testing.T) {
	transcript := Transcript(1, SuiteMLKEM768MLDSA65, "ctx:v1", []byte("voucher"), []byte("extra"))

	if transcript[0] != 1 {
		t.Errorf("first byte (version) = %d, want 1", transcript[0])
	}

	want := append([]byte{1}, []byte(SuiteMLKEM768MLDSA65+"ctx:v1voucherextra")...)
	if !bytes.Equal(transcript, want) {
		t.Errorf("Transcript() = %q, want %q", transcript, want)
	}
}

func TestTranscript_VersionByte(t *testing.T) {
	for _, v := range []byte{0, 1, 2, 255} {
		if got := Transcript(v, "", "")[0]; got != v {
			t.Errorf("version byte = %d, want %d", got, v)
		}
	}
}
