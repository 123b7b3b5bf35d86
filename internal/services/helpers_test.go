package services

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"propulsores/internal/dataset"
	"propulsores/internal/shared/testutil"
)

// partnerCSV holds six documents: three divergences, two of them tampered,
// two rows without a usable creation date.
const partnerCSV = `Tempo de Análise,Tipo de Documento,ID Conta Principal,Análise,Divergências,Data Criação
Empresa A,RG,101,Confere,,01/03/2024
Empresa A,CNH,101,Rejeitado,Documento adulterado,01/03/2024 10:15:00
Empresa B,RG,202,Aprovado,Não informado,02/03/2024
Empresa B,CNH,202,Rejeitado,Foto borrada,03/03/2024
Empresa C,RG,303,Rejeitado,Documento adulterado,
Empresa C,Passaporte,303,Confere,nan,data inválida
`

var loadedAt = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

// countingLoad parses doc on every call and counts the calls.
type countingLoad struct {
	doc   string
	err   error
	calls atomic.Int32
}

func (l *countingLoad) Load(_ context.Context) (*dataset.Table, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	frame, err := dataset.ParseCSV(strings.NewReader(l.doc))
	if err != nil {
		return nil, err
	}
	return dataset.Merge(frame).WithLoadedAt(loadedAt), nil
}

func newTestService(t *testing.T, load *countingLoad, opts ...DashboardOption) *DashboardService {
	t.Helper()
	cache := dataset.NewCache(10 * time.Minute)
	return NewDashboardService(cache, load.Load, testutil.Logger(t), opts...)
}

func mustService(t *testing.T) (*DashboardService, *countingLoad) {
	t.Helper()
	load := &countingLoad{doc: partnerCSV}
	svc := newTestService(t, load)
	require.NotNil(t, svc)
	return svc, load
}

func boolPtr(b bool) *bool { return &b }
