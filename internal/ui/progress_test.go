package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgress_Done(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 3, false)

	p.Done("frame.sldprt")
	p.Done("motor.step")
	p.Done("wing.iges")

	out := buf.String()
	if !strings.Contains(out, "[1/3] frame.sldprt") {
		t.Errorf("missing progress line for frame.sldprt: %s", out)
	}
	if !strings.Contains(out, "[2/3] motor.step") {
		t.Errorf("missing progress line for motor.step: %s", out)
	}
	if !strings.Contains(out, "[3/3] wing.iges") {
		t.Errorf("missing progress line for wing.iges: %s", out)
	}
}

func TestProgress_Log(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 1, false)

	p.Log("downloading %s", "frame.sldprt")

	out := buf.String()
	if !strings.Contains(out, "downloading frame.sldprt") {
		t.Errorf("missing log message: %s", out)
	}
}

func TestProgress_quiet(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 2, true)

	p.Done("frame.sldprt")
	p.Log("downloading %s", "motor.step")

	if buf.Len() != 0 {
		t.Errorf("quiet progress produced output: %s", buf.String())
	}
}
