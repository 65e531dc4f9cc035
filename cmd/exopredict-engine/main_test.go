package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestRunRejectsBadVector(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, t.TempDir(), "[1,2,3]")
	var ee *exitError
	if !errors.As(err, &ee) || ee.code != exitUsage {
		t.Fatalf("expected usage exit, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no stdout, got %q", out.String())
	}
}

func TestRunReportsMissingModel(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, t.TempDir(), "[1,2,3,4,5,6,7,8,9,10,11,12,13]")
	var ee *exitError
	if !errors.As(err, &ee) || ee.code != exitModelMissing {
		t.Fatalf("expected missing model exit, got %v", err)
	}
	if !strings.Contains(err.Error(), "model file not found") {
		t.Fatalf("expected diagnostic to name the missing model, got %q", err.Error())
	}
}
