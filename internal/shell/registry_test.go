package shell

import (
	"reflect"
	"testing"
)

func TestRegistry(t *testing.T) {
	nop := func(*Shell, []string) error { return nil }
	r := newRegistry()
	if err := r.register(command{Name: "terminate", Aliases: []string{"kill", " "}, Run: nop}); err != nil {
		t.Fatalf("register() = %v", err)
	}
	if err := r.register(command{Name: "ps", Run: nop}); err != nil {
		t.Fatalf("register() = %v", err)
	}

	cmd, ok := r.resolve("kill")
	if !ok || cmd.Name != "terminate" {
		t.Fatalf("resolve(kill) = %q, %v, want terminate", cmd.Name, ok)
	}
	if _, ok := r.resolve(""); ok {
		t.Fatalf("resolve(\"\") succeeded")
	}
	if got, want := r.names(), []string{"ps", "terminate"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("names() = %v, want %v", got, want)
	}

	bad := []command{
		{Name: " ", Run: nop},
		{Name: "x"},
		{Name: "ps", Run: nop},
		{Name: "stop", Aliases: []string{"kill"}, Run: nop},
	}
	for _, c := range bad {
		if err := r.register(c); err == nil {
			t.Fatalf("register(%+v) succeeded", c)
		}
	}
	if _, ok := r.resolve("stop"); ok {
		t.Fatalf("rejected command was registered")
	}
}
