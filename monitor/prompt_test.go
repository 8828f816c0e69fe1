package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptParticipant(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		def    string
		want   string
		prompt string
	}{
		{"answer", "p07\n", "", "p07", "\nEnter participant ID: "},
		{"answer replaces default", "  p08 \r\n", "p01", "p08", "\nEnter participant ID [p01]: "},
		{"blank keeps default", "\n", "p01", "p01", "\nEnter participant ID [p01]: "},
		{"closed input", "", "p01", "p01", "\nEnter participant ID [p01]: "},
		{"last line without newline", "p09", "", "p09", "\nEnter participant ID: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := promptParticipant(bufio.NewReader(strings.NewReader(tt.input)), &out, tt.def)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.prompt, out.String())
		})
	}
}

func TestPromptParticipant_PerSession(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("alice\n\nbob\n"))
	var out bytes.Buffer

	assert.Equal(t, "alice", promptParticipant(in, &out, ""))
	assert.Equal(t, "", promptParticipant(in, &out, ""))
	assert.Equal(t, "bob", promptParticipant(in, &out, ""))
}
