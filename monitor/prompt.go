package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// promptParticipant asks for the participant ID of a finished session.
// An empty answer, or a closed input, keeps def.
func promptParticipant(in *bufio.Reader, out io.Writer, def string) string {
	if def != "" {
		fmt.Fprintf(out, "\nEnter participant ID [%s]: ", def)
	} else {
		fmt.Fprint(out, "\nEnter participant ID: ")
	}

	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return def
	}
	if id := strings.TrimSpace(line); id != "" {
		return id
	}
	return def
}
