package metric

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestKeyspaceCollector_Describe(t *testing.T) {
	c := NewKeyspaceCollector(func() []KeyspaceStats { return nil })
	ch := make(chan *prometheus.Desc, 4)
	c.Describe(ch)
	close(ch)

	n := 0
	for range ch {
		n++
	}
	if n != 2 {
		t.Errorf("Describe() sent %d descs, want 2", n)
	}
}

func TestKeyspaceCollector_Collect(t *testing.T) {
	stats := []KeyspaceStats{
		{DB: 0, Keys: 3, Expires: 1},
		{DB: 1},
		{DB: 2, Keys: 5, Expires: 0},
	}

	r := NewRegistry()
	if err := r.Register(NewKeyspaceCollector(func() []KeyspaceStats { return stats })); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	body := scrape(t, r)

	for _, want := range []string{
		`memkv_keyspace_keys{db="0"} 3`,
		`memkv_keyspace_expires{db="0"} 1`,
		`memkv_keyspace_keys{db="2"} 5`,
		`memkv_keyspace_expires{db="2"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s", want)
		}
	}
	if strings.Contains(body, `db="1"`) {
		t.Error("empty database should not be reported")
	}
}

func TestKeyspaceCollector_DuplicateRegister(t *testing.T) {
	r := NewRegistry()
	src := func() []KeyspaceStats { return nil }
	if err := r.Register(NewKeyspaceCollector(src)); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := r.Register(NewKeyspaceCollector(src)); err == nil {
		t.Error("second Register() should fail")
	}
}
