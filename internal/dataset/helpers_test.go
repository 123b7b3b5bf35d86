package dataset

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// mustTable parses one CSV document into a table.
func mustTable(t *testing.T, doc string) *Table {
	t.Helper()
	frame, err := ParseCSV(strings.NewReader(doc))
	require.NoError(t, err)
	return Merge(frame)
}

// statusTable builds a table with one status column.
func statusTable(statuses ...string) *Table {
	frame := &Frame{Columns: []string{ColStatus}}
	for _, s := range statuses {
		frame.Records = append(frame.Records, []string{s})
	}
	return Merge(frame)
}

// columnValues returns the raw cells of one column.
func columnValues(tbl *Table, column string) []string {
	out := make([]string, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		col := tbl.index[column]
		out = append(out, tbl.Row(i)[col])
	}
	return out
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func boolPtr(b bool) *bool { return &b }

// partnerCSV is a small merged-looking dataset used across tests.
const partnerCSV = `Tempo de Análise,Tipo de Documento,ID Conta Principal,Análise,Divergências,Data Criação
Empresa A,RG,101,Confere,,01/03/2024
Empresa A,CNH,101,Rejeitado,Documento adulterado,01/03/2024 10:15:00
Empresa B,RG,202,Aprovado,Não informado,02/03/2024
Empresa B,CNH,202,Rejeitado,Foto borrada,03/03/2024
Empresa C,RG,303,Rejeitado,Documento adulterado,
Empresa C,Passaporte,303,Confere,nan,data inválida
`

type stubSource struct {
	name  string
	frame *Frame
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context) (*Frame, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.frame, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeRecorder struct {
	mu       sync.Mutex
	fetches  map[string]int
	loads    int
	failures int
	hits     int
	misses   int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{fetches: make(map[string]int)}
}

func (r *fakeRecorder) RecordSourceFetch(_ context.Context, source string, _ time.Duration, _ int, _ error) {
	r.mu.Lock()
	r.fetches[source]++
	r.mu.Unlock()
}

func (r *fakeRecorder) RecordLoad(_ context.Context, _ time.Duration, _ int, err error) {
	r.mu.Lock()
	r.loads++
	if err != nil {
		r.failures++
	}
	r.mu.Unlock()
}

func (r *fakeRecorder) RecordCacheHit(context.Context) {
	r.mu.Lock()
	r.hits++
	r.mu.Unlock()
}

func (r *fakeRecorder) RecordCacheMiss(context.Context) {
	r.mu.Lock()
	r.misses++
	r.mu.Unlock()
}
