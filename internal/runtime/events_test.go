package runtime

import (
	"bytes"
	"reflect"
	"testing"

	"ember-lang/internal/parser"
)

// setupInterp runs source and returns the interpreter for host-side calls.
func setupInterp(t *testing.T, source string) (*Interpreter, *bytes.Buffer) {
	t.Helper()
	program, diags := parser.Parse(source, "test.em")
	if program == nil {
		t.Fatalf("parse failed: %v", diags)
	}
	var buf bytes.Buffer
	interp := NewInterpreter(&buf)
	if err := interp.Run(program); err != nil {
		t.Fatalf("run: %v", err)
	}
	return interp, &buf
}

const doorSource = `
object Door : {
  var opened = 0
  on open(who) : {
    Door.opened = Door.opened + 1;
    println("opened by", who);
  } end
  on knock() : {
    return "who is there";
  } end
} end
`

func TestEmit(t *testing.T) {
	interp, buf := setupInterp(t, doorSource)

	val, err := interp.Emit("Door", "open", StringVal("alice"))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if _, ok := val.(NilVal); !ok {
		t.Errorf("expected nil result, got %v", val)
	}
	if buf.String() != "opened by alice\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}

	tbl, ok := interp.Lookup("Door")
	if !ok {
		t.Fatal("Door not defined")
	}
	if n := tbl.(*TableVal).Entries["opened"]; n != IntVal(1) {
		t.Errorf("expected opened == 1, got %v", n)
	}
}

func TestEmitReturnValue(t *testing.T) {
	interp, _ := setupInterp(t, doorSource)

	val, err := interp.Emit("Door", "knock")
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if val != StringVal("who is there") {
		t.Errorf("unexpected result: %v", val)
	}
}

func TestEmitSelf(t *testing.T) {
	interp, _ := setupInterp(t, `
object Account : {
  var balance = 0
  on deposit(amount) : {
    self.balance = self.balance + amount;
    return self.balance;
  } end
} end
`)

	val, err := interp.Emit("Account", "deposit", IntVal(25))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if val != IntVal(25) {
		t.Errorf("unexpected result: %v", val)
	}
	val, err = interp.Emit("Account", "deposit", IntVal(10))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if val != IntVal(35) {
		t.Errorf("unexpected result: %v", val)
	}
}

func TestEmitMissingArgsGetNil(t *testing.T) {
	interp, buf := setupInterp(t, doorSource)

	if _, err := interp.Emit("Door", "open"); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if buf.String() != "opened by nil\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestEmitUnknown(t *testing.T) {
	interp, _ := setupInterp(t, doorSource)

	if _, err := interp.Emit("Door", "close"); err == nil {
		t.Error("expected error for unknown event")
	}
	if _, err := interp.Emit("Window", "open"); err == nil {
		t.Error("expected error for unknown object")
	}
}

func TestEventNotATableEntry(t *testing.T) {
	interp, _ := setupInterp(t, doorSource)

	tbl, _ := interp.Lookup("Door")
	if _, exists := tbl.(*TableVal).Entries["open"]; exists {
		t.Error("event handler should not appear as a table entry")
	}
}

func TestHandlers(t *testing.T) {
	interp, _ := setupInterp(t, doorSource)

	got := interp.Handlers("Door")
	want := []string{"knock", "open"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if interp.Handlers("Window") != nil {
		t.Error("expected nil for unknown object")
	}
}
