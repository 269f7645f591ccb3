package llmtest

import (
	"context"

	"github.com/habiliai/aurora/errors"
	"github.com/habiliai/aurora/llm"
	"github.com/stretchr/testify/mock"
)

// GatewayMock answers completions with the raw JSON payload given to Return,
// decoded through the request's contract like a real gateway would.
type GatewayMock struct {
	mock.Mock
}

// Complete implements llm.Gateway.
func (m *GatewayMock) Complete(ctx context.Context, req llm.Request, out any) error {
	args := m.Called(ctx, req)
	if err := args.Error(1); err != nil {
		return err
	}

	if err := req.Contract.Decode([]byte(args.String(0)), out); err != nil {
		kind := llm.FailureContract
		if errors.Is(err, llm.ErrMalformed) {
			kind = llm.FailureParse
		}
		return &llm.Failure{Kind: kind, Model: req.Model, Contract: req.Contract.Name, Err: err}
	}

	return nil
}

// ForContract matches requests made with the named contract.
func ForContract(name string) any {
	return mock.MatchedBy(func(req llm.Request) bool {
		return req.Contract != nil && req.Contract.Name == name
	})
}

// TransportFailure is what a gateway returns when the provider is unreachable.
func TransportFailure(contract string) error {
	return &llm.Failure{
		Kind:     llm.FailureTransport,
		Model:    "test-model",
		Contract: contract,
		Err:      errors.New("connection refused"),
	}
}

// Requests returns every request the mock received for the named contract.
func (m *GatewayMock) Requests(contract string) []llm.Request {
	var reqs []llm.Request
	for _, call := range m.Calls {
		if call.Method != "Complete" {
			continue
		}
		req := call.Arguments.Get(1).(llm.Request)
		if req.Contract != nil && req.Contract.Name == contract {
			reqs = append(reqs, req)
		}
	}
	return reqs
}

var (
	_ llm.Gateway = (*GatewayMock)(nil)
)
